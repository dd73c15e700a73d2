package reconcile

import (
	"sitemirror/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
)

func prior(status model.TransferStatus) *model.LedgerEntry {
	return &model.LedgerEntry{Status: status}
}

func TestDecideTransferModes(t *testing.T) {
	// Sync, Resume and Update share one per-file rule.
	for _, mode := range []model.Mode{model.ModeSync, model.ModeResume, model.ModeUpdate} {
		tests := []struct {
			name  string
			prior *model.LedgerEntry
			want  bool
		}{
			{"no prior entry", nil, true},
			{"prior success", prior(model.StatusSuccess), false},
			{"prior failed", prior(model.StatusFailed), true},
			{"prior pending", prior(model.StatusPending), true},
		}

		for _, tt := range tests {
			t.Run(string(mode)+"/"+tt.name, func(t *testing.T) {
				got := Decide(mode, tt.prior, LocalState{}, 100)
				assert.Equal(t, tt.want, got.Fetch)
			})
		}
	}
}

func TestDecideRecheck(t *testing.T) {
	tests := []struct {
		name       string
		prior      *model.LedgerEntry
		local      LocalState
		sizeBytes  uint64
		wantFetch  bool
		wantReason string
	}{
		{"no prior entry", nil, LocalState{Exists: true, Size: 100}, 100, false, "no verified baseline"},
		{"prior failed", prior(model.StatusFailed), LocalState{Exists: true, Size: 100}, 100, false, "no verified baseline"},
		{"prior pending", prior(model.StatusPending), LocalState{}, 100, false, "no verified baseline"},
		{"success but missing locally", prior(model.StatusSuccess), LocalState{}, 100, true, "missing locally"},
		{"success but size differs", prior(model.StatusSuccess), LocalState{Exists: true, Size: 99}, 100, true, "size mismatch"},
		{"success and size matches", prior(model.StatusSuccess), LocalState{Exists: true, Size: 100}, 100, false, "verified"},
		{"success and zero-byte match", prior(model.StatusSuccess), LocalState{Exists: true, Size: 0}, 0, false, "verified"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(model.ModeRecheck, tt.prior, tt.local, tt.sizeBytes)
			assert.Equal(t, tt.wantFetch, got.Fetch)
			assert.Equal(t, tt.wantReason, got.Reason)
		})
	}
}
