package websocket

import (
	"time"

	"github.com/KevinKickass/donp/internal/protocol"
	"github.com/google/uuid"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MessageTypeTransaction  MessageType = "transaction"
	MessageTypeRunStarted   MessageType = "run_started"
	MessageTypeRunCompleted MessageType = "run_completed"
	MessageTypeSystemStatus MessageType = "system_status"

	// Replies to client requests
	MessageTypeSubscribed MessageType = "subscribed"
	MessageTypeError      MessageType = "error"
)

// Message represents a WebSocket message
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// RunStartedData announces a run before its first transaction.
type RunStartedData struct {
	RunID      uuid.UUID `json:"run_id"`
	Iterations int       `json:"iterations"`
}

// RunCompletedData summarizes a finished run without its per-transaction results.
type RunCompletedData struct {
	RunID      uuid.UUID `json:"run_id"`
	Iterations int       `json:"iterations"`
	Attempted  int       `json:"attempted"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	DurationMS int64     `json:"duration_ms"`
}

// ClientRequest is what clients may send over the socket.
type ClientRequest struct {
	Type    string   `json:"type"`
	Devices []string `json:"devices"`
}

// NewMessage creates a new message with current timestamp
func NewMessage(msgType MessageType, data interface{}) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

func NewTransactionMessage(result protocol.TransactionResult) Message {
	return NewMessage(MessageTypeTransaction, result)
}

func NewRunStartedMessage(runID uuid.UUID, iterations int) Message {
	return NewMessage(MessageTypeRunStarted, RunStartedData{RunID: runID, Iterations: iterations})
}

func NewRunCompletedMessage(report *protocol.Report) Message {
	return NewMessage(MessageTypeRunCompleted, RunCompletedData{
		RunID:      report.RunID,
		Iterations: report.Iterations,
		Attempted:  report.Attempted,
		Succeeded:  report.Succeeded,
		Failed:     report.Failed,
		DurationMS: report.Duration.Milliseconds(),
	})
}
