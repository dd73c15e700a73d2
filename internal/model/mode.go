package model

// Mode selects the per-file reconciliation policy. Sync, Resume and
// Update share one effective policy; Update additionally refreshes the
// inventory before reconciling, and Recheck verifies prior successes.
type Mode string

const (
	ModeSync    Mode = "SYNC"
	ModeResume  Mode = "RESUME"
	ModeRecheck Mode = "RECHECK"
	ModeUpdate  Mode = "UPDATE"
)
