package translator

import "time"

// State is the phase of the page cycle currently running.
type State int

const (
	StateIdle State = iota
	StateExtracting
	StateBatching
	StateTranslating
	StateApplying
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateExtracting:
		return "extracting"
	case StateBatching:
		return "batching"
	case StateTranslating:
		return "translating"
	case StateApplying:
		return "applying"
	default:
		return "unknown"
	}
}

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	State                  State
	CurrentTargetLanguage  string
	IsTranslating          bool
	LastTranslatedLanguage string
	CycleID                string
}

// BatchState represents the progress of one batch.
type BatchState int

const (
	BatchStarted BatchState = iota
	BatchRetrying
	BatchCompleted
	BatchFellBack
)

func (s BatchState) String() string {
	switch s {
	case BatchStarted:
		return "started"
	case BatchRetrying:
		return "retrying"
	case BatchCompleted:
		return "completed"
	case BatchFellBack:
		return "fell_back"
	default:
		return "unknown"
	}
}

// Progress reports a batch transition to the progress callback.
type Progress struct {
	CycleID      string
	BatchIndex   int
	TotalBatches int
	// Attempt is zero-based.
	Attempt int
	State   BatchState
	Error   error
	// Delay is the wait before the next attempt, for BatchRetrying.
	Delay time.Duration
}

// Status values of a PageResult.
const (
	StatusSuccess        = "Success"
	StatusPartialSuccess = "Partial Success"
	StatusFailure        = "Failure"
	StatusSkipped        = "Skipped"
)

// Reasons a cycle exits before extraction or before contacting the backend.
const (
	ReasonBaseline          = "baseline language"
	ReasonBusy              = "translation in progress"
	ReasonAlreadyTranslated = "already translated"
	ReasonEmptyCatalog      = "no translatable text"
	ReasonCanceled          = "canceled"
)

// PageResult summarizes one TranslatePage call.
type PageResult struct {
	CycleID       string
	Target        string
	Status        string
	Reason        string
	Units         int
	Batches       int
	FailedBatches []int
	Applied       int
	Skipped       int
}
