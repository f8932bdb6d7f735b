package interfaces

import (
	"context"
	"errors"

	"github.com/KevinKickass/donp/internal/config"
	"github.com/KevinKickass/donp/internal/observe"
	"github.com/KevinKickass/donp/internal/protocol"
	"github.com/KevinKickass/donp/internal/storage"
	"github.com/google/uuid"
)

var (
	ErrStorageDisabled = errors.New("run storage is disabled")
	ErrNoRun           = errors.New("no run has completed yet")
)

// SystemStatus represents the current system state
type SystemStatus struct {
	State          string          `json:"state"`
	Definition     string          `json:"definition"`
	ProtocolState  string          `json:"protocol_state"`
	DeviceCount    int             `json:"device_count"`
	PrototypeCount int             `json:"prototype_count"`
	StorageEnabled bool            `json:"storage_enabled"`
	LastRunID      string          `json:"last_run_id,omitempty"`
	Error          string          `json:"error,omitempty"`
	Statistics     observe.Summary `json:"statistics"`
}

type LifecycleManager interface {
	Config() *config.Config
	GetCurrentStatus() SystemStatus

	ProtocolSnapshot() protocol.Snapshot
	Device(name string) (protocol.DeviceSnapshot, bool)
	Prototypes() []*protocol.Prototype
	Prototype(name string) (*protocol.Prototype, bool)

	RunProtocol(ctx context.Context) (*protocol.Report, error)
	LastReport() (*protocol.Report, error)
	ListRuns(ctx context.Context, limit int) ([]storage.ProtocolRun, error)
	RunResults(ctx context.Context, runID uuid.UUID) ([]storage.TransactionRecord, error)

	Reload() error
	Shutdown(ctx context.Context) error
}
