package reconcile

import (
	"sitemirror/internal/model"
	"strings"
)

// LocalState is the mirror-side view of one file, read fresh from the
// filesystem whenever a mode's policy needs it.
type LocalState struct {
	Exists bool
	Size   int64
}

type Decision struct {
	Fetch  bool
	Reason string
}

// Decide applies the per-file mode policy. It is pure: the caller looks
// up the prior ledger entry and stats the local file, Decide only ranks
// them. Sync, Resume and Update share one rule (fetch unless the prior
// attempt succeeded); Update's distinct behavior is the inventory
// refresh that precedes reconciliation, not the per-file decision.
func Decide(mode model.Mode, prior *model.LedgerEntry, local LocalState, sizeBytes uint64) Decision {
	if mode == model.ModeRecheck {
		return decideRecheck(prior, local, sizeBytes)
	}

	switch {
	case prior == nil:
		return Decision{Fetch: true, Reason: "not yet transferred"}
	case prior.Status == model.StatusSuccess:
		return Decision{Fetch: false, Reason: "already transferred"}
	default:
		return Decision{Fetch: true, Reason: "retry after " + strings.ToLower(string(prior.Status))}
	}
}

// decideRecheck verifies previously successful transfers against the
// local file. The check is byte-length equality only, deliberately
// weaker than hashing.
func decideRecheck(prior *model.LedgerEntry, local LocalState, sizeBytes uint64) Decision {
	if prior == nil || prior.Status != model.StatusSuccess {
		return Decision{Fetch: false, Reason: "no verified baseline"}
	}

	if !local.Exists {
		return Decision{Fetch: true, Reason: "missing locally"}
	}

	if local.Size < 0 || uint64(local.Size) != sizeBytes {
		return Decision{Fetch: true, Reason: "size mismatch"}
	}

	return Decision{Fetch: false, Reason: "verified"}
}
