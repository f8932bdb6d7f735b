package storage

import (
	"time"

	"github.com/KevinKickass/donp/internal/protocol"
	"github.com/google/uuid"
)

type ProtocolRun struct {
	ID         uuid.UUID `json:"id"`
	Definition string    `json:"definition"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Iterations int       `json:"iterations"`
	Attempted  int       `json:"attempted"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	CreatedAt  time.Time `json:"created_at"`
}

type TransactionRecord struct {
	RunID     uuid.UUID `json:"run_id"`
	Iteration int       `json:"iteration"`
	Device    string    `json:"device"`
	Message   string    `json:"message"`
	Outcome   string    `json:"outcome"`
	Error     string    `json:"error,omitempty"`
	TX        string    `json:"tx,omitempty"`
	RX        string    `json:"rx,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewProtocolRun maps a run report onto its table row.
func NewProtocolRun(definition string, report *protocol.Report) ProtocolRun {
	return ProtocolRun{
		ID:         report.RunID,
		Definition: definition,
		StartedAt:  report.StartedAt,
		DurationMS: report.Duration.Milliseconds(),
		Iterations: report.Iterations,
		Attempted:  report.Attempted,
		Succeeded:  report.Succeeded,
		Failed:     report.Failed,
	}
}

func transactionRows(report *protocol.Report) [][]any {
	rows := make([][]any, 0, len(report.Results))
	for _, r := range report.Results {
		rows = append(rows, []any{
			report.RunID, r.Iteration, r.Device, r.Message,
			string(r.Outcome), r.Error, r.TX, r.RX, r.Timestamp,
		})
	}
	return rows
}

// Column lists follow the struct field order; rows are scanned by position.
var runColumns = []string{
	"id", "definition", "started_at", "duration_ms", "iterations", "attempted", "succeeded", "failed", "created_at",
}

var transactionColumns = []string{
	"run_id", "iteration", "device", "message", "outcome", "error", "tx", "rx", "created_at",
}
