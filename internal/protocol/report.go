package protocol

import (
	"time"

	"github.com/google/uuid"
)

type Outcome string

const (
	OutcomeOK                  Outcome = "ok"
	OutcomePrototypeMissing    Outcome = "prototype_missing"
	OutcomeBuildEmpty          Outcome = "build_empty"
	OutcomeTransportFailed     Outcome = "transport_failed"
	OutcomeChecksumUnavailable Outcome = "checksum_unavailable"
	OutcomeValidationFailed    Outcome = "validation_failed"
)

// TransactionResult describes one attempted transaction.
type TransactionResult struct {
	RunID     uuid.UUID `json:"run_id"`
	Iteration int       `json:"iteration"`
	Device    string    `json:"device"`
	Address   uint64    `json:"address"`
	Message   string    `json:"message"`
	Outcome   Outcome   `json:"outcome"`
	Error     string    `json:"error,omitempty"`
	TX        string    `json:"tx,omitempty"`
	RX        string    `json:"rx,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (r TransactionResult) OK() bool {
	return r.Outcome == OutcomeOK
}

// Report summarizes one call to Run.
type Report struct {
	RunID      uuid.UUID           `json:"run_id"`
	StartedAt  time.Time           `json:"started_at"`
	Duration   time.Duration       `json:"duration"`
	Iterations int                 `json:"iterations"`
	Attempted  int                 `json:"attempted"`
	Succeeded  int                 `json:"succeeded"`
	Failed     int                 `json:"failed"`
	Results    []TransactionResult `json:"results"`
}

func (r *Report) add(result TransactionResult) {
	r.Attempted++
	if result.OK() {
		r.Succeeded++
	} else {
		r.Failed++
	}
	r.Results = append(r.Results, result)
}

// Observer is notified after every transaction.
type Observer interface {
	OnTransaction(result TransactionResult)
}

// RunObserver is optionally implemented by observers that also want run
// boundaries.
type RunObserver interface {
	OnRunStarted(runID uuid.UUID, iterations int)
	OnRunCompleted(report *Report)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(TransactionResult)

func (f ObserverFunc) OnTransaction(result TransactionResult) {
	f(result)
}
