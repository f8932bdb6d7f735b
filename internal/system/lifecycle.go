package system

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/KevinKickass/donp/internal/api/rest"
	"github.com/KevinKickass/donp/internal/api/websocket"
	"github.com/KevinKickass/donp/internal/auth"
	"github.com/KevinKickass/donp/internal/config"
	"github.com/KevinKickass/donp/internal/definition"
	"github.com/KevinKickass/donp/internal/interfaces"
	"github.com/KevinKickass/donp/internal/observe"
	"github.com/KevinKickass/donp/internal/protocol"
	"github.com/KevinKickass/donp/internal/storage"
	"github.com/KevinKickass/donp/internal/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LifecycleManager wires the definition loader, the protocol engine and the
// outer surfaces together. All protocol access goes through protoMu.
type LifecycleManager struct {
	config   *config.Config
	storage  *storage.PostgresClient
	loader   *definition.Loader
	stats    *observe.Statistics
	wsHub    *websocket.Hub
	auth     *auth.Service
	logger   *zap.Logger
	protoMu  sync.Mutex
	protocol *protocol.Protocol

	restServer *rest.Server
	hubCancel  context.CancelFunc

	stateMu      sync.RWMutex
	currentState SystemState
	lastError    string

	shutdownOnce sync.Once
	stopped      chan struct{}
}

// NewLifecycleManager builds the system. store may be nil when run storage
// is disabled.
func NewLifecycleManager(cfg *config.Config, store *storage.PostgresClient, logger *zap.Logger) (*LifecycleManager, error) {
	loader, err := definition.NewLoader(cfg.Protocol.SearchPaths, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create definition loader: %w", err)
	}

	var authSvc *auth.Service
	if cfg.Auth.Enabled {
		authSvc, err = auth.NewService(cfg.Auth, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create auth service: %w", err)
		}
	}

	stats := observe.NewStatistics(logger)
	hub := websocket.NewHub(logger)

	opts := []protocol.Option{
		protocol.WithIterations(cfg.Protocol.Iterations),
		protocol.WithObserver(stats),
		protocol.WithObserver(observe.MetricsObserver{}),
		protocol.WithObserver(hub),
	}
	if cfg.Protocol.Seed != 0 {
		opts = append(opts, protocol.WithRand(rand.New(rand.NewPCG(cfg.Protocol.Seed, cfg.Protocol.Seed))))
	}

	return &LifecycleManager{
		config:       cfg,
		storage:      store,
		loader:       loader,
		stats:        stats,
		wsHub:        hub,
		auth:         authSvc,
		logger:       logger,
		protocol:     protocol.New(logger, opts...),
		currentState: StateInitializing,
		stopped:      make(chan struct{}),
	}, nil
}

// Start loads and configures the protocol definition, then brings up the
// websocket hub, run storage and the REST API.
func (lm *LifecycleManager) Start() error {
	lm.logger.Info("Starting DONP",
		zap.String("definition", lm.config.Protocol.Definition),
		zap.Int("iterations", lm.config.Protocol.Iterations))

	lm.setState(StateInitializing)

	if err := lm.loadDefinition(); err != nil {
		lm.setError(err)
		return err
	}

	hubCtx, cancel := context.WithCancel(context.Background())
	lm.hubCancel = cancel
	go lm.wsHub.Run(hubCtx)

	if lm.storage != nil {
		if err := lm.storage.EnsureSchema(context.Background()); err != nil {
			lm.setError(err)
			return fmt.Errorf("failed to prepare run storage: %w", err)
		}
	}

	if lm.config.Server.Enabled {
		lm.restServer = rest.NewServer(lm.config, lm, lm.logger, lm.wsHub, lm.auth)
		if err := lm.restServer.Start(); err != nil {
			lm.setError(fmt.Errorf("failed to start REST API: %w", err))
			return err
		}
	}

	lm.setState(StateRunning)
	lm.broadcastStatus()

	lm.logger.Info("System started successfully",
		zap.Bool("http_enabled", lm.config.Server.Enabled),
		zap.Int("http_port", lm.config.Server.HTTPPort),
		zap.Bool("storage_enabled", lm.storage != nil))

	return nil
}

func (lm *LifecycleManager) loadDefinition() error {
	def, err := lm.loader.Load(lm.config.Protocol.Definition)
	if err != nil {
		return fmt.Errorf("failed to load protocol definition: %w", err)
	}

	lm.protoMu.Lock()
	defer lm.protoMu.Unlock()
	if err := lm.protocol.Configure(def); err != nil {
		return fmt.Errorf("failed to configure protocol: %w", err)
	}
	lm.protocol.Log()
	return nil
}

// Reload re-reads the protocol definition from disk. When the new
// definition is invalid the previous one stays active.
func (lm *LifecycleManager) Reload() error {
	if err := lm.transition(StateReloading); err != nil {
		return err
	}
	lm.broadcastStatus()

	lm.loader.ClearCache()
	err := lm.loadDefinition()
	if err != nil {
		lm.logger.Error("Reload failed, keeping previous definition", zap.Error(err))
	} else {
		lm.logger.Info("Protocol definition reloaded")
	}

	lm.setState(StateRunning)
	lm.broadcastStatus()
	return err
}

// RunProtocol executes one full run and stores its report when run
// storage is enabled.
func (lm *LifecycleManager) RunProtocol(ctx context.Context) (*protocol.Report, error) {
	lm.protoMu.Lock()
	report, err := lm.protocol.Run()
	lm.protoMu.Unlock()
	if err != nil {
		return nil, err
	}

	if lm.storage != nil {
		if err := lm.storage.SaveRun(ctx, lm.config.Protocol.Definition, report); err != nil {
			lm.logger.Error("Failed to store run", zap.String("run_id", report.RunID.String()), zap.Error(err))
		}
	}

	return report, nil
}

func (lm *LifecycleManager) LastReport() (*protocol.Report, error) {
	lm.protoMu.Lock()
	defer lm.protoMu.Unlock()
	if report := lm.protocol.LastReport(); report != nil {
		return report, nil
	}
	return nil, interfaces.ErrNoRun
}

func (lm *LifecycleManager) ListRuns(ctx context.Context, limit int) ([]storage.ProtocolRun, error) {
	if lm.storage == nil {
		return nil, interfaces.ErrStorageDisabled
	}
	return lm.storage.ListRuns(ctx, limit)
}

func (lm *LifecycleManager) RunResults(ctx context.Context, runID uuid.UUID) ([]storage.TransactionRecord, error) {
	if lm.storage == nil {
		return nil, interfaces.ErrStorageDisabled
	}
	return lm.storage.RunResults(ctx, runID)
}

func (lm *LifecycleManager) ProtocolSnapshot() protocol.Snapshot {
	lm.protoMu.Lock()
	defer lm.protoMu.Unlock()
	return lm.protocol.Snapshot()
}

func (lm *LifecycleManager) Device(name string) (protocol.DeviceSnapshot, bool) {
	lm.protoMu.Lock()
	defer lm.protoMu.Unlock()
	dev, ok := lm.protocol.Device(name)
	if !ok {
		return protocol.DeviceSnapshot{}, false
	}
	return lm.protocol.DeviceSnapshot(dev), true
}

func (lm *LifecycleManager) Prototypes() []*protocol.Prototype {
	lm.protoMu.Lock()
	defer lm.protoMu.Unlock()
	return lm.protocol.Prototypes()
}

func (lm *LifecycleManager) Prototype(name string) (*protocol.Prototype, bool) {
	lm.protoMu.Lock()
	defer lm.protoMu.Unlock()
	return lm.protocol.Prototype(name)
}

// Statistics returns the run statistics collector.
func (lm *LifecycleManager) Statistics() *observe.Statistics {
	return lm.stats
}

// Shutdown gracefully shuts down the system
func (lm *LifecycleManager) Shutdown(ctx context.Context) error {
	var shutdownErr error

	lm.shutdownOnce.Do(func() {
		lm.logger.Info("Shutting down system")

		lm.setState(StateStopping)
		lm.broadcastStatus()

		if lm.restServer != nil {
			if err := lm.restServer.Shutdown(ctx); err != nil {
				shutdownErr = fmt.Errorf("rest api shutdown failed: %w", err)
			}
		}

		if lm.hubCancel != nil {
			lm.hubCancel()
		}

		if lm.storage != nil {
			lm.storage.Close()
		}

		lm.stats.Log()
		lm.setState(StateStopped)
		close(lm.stopped)
	})

	return shutdownErr
}

// Done is closed once Shutdown has completed.
func (lm *LifecycleManager) Done() <-chan struct{} {
	return lm.stopped
}

func (lm *LifecycleManager) transition(to SystemState) error {
	lm.stateMu.Lock()
	defer lm.stateMu.Unlock()
	if err := ValidateTransition(lm.currentState, to); err != nil {
		return err
	}
	lm.currentState = to
	return nil
}

func (lm *LifecycleManager) setState(state SystemState) {
	lm.stateMu.Lock()
	defer lm.stateMu.Unlock()
	lm.currentState = state
}

func (lm *LifecycleManager) setError(err error) {
	lm.logger.Error("System error", zap.Error(err))
	lm.stateMu.Lock()
	defer lm.stateMu.Unlock()
	lm.currentState = StateError
	lm.lastError = err.Error()
}

// State returns the current system state.
func (lm *LifecycleManager) State() SystemState {
	lm.stateMu.RLock()
	defer lm.stateMu.RUnlock()
	return lm.currentState
}

// GetCurrentStatus returns current system status (Interface implementation)
func (lm *LifecycleManager) GetCurrentStatus() interfaces.SystemStatus {
	lm.protoMu.Lock()
	status := interfaces.SystemStatus{
		Definition:     lm.config.Protocol.Definition,
		ProtocolState:  lm.protocol.State().String(),
		DeviceCount:    len(lm.protocol.Devices()),
		PrototypeCount: len(lm.protocol.Prototypes()),
		StorageEnabled: lm.storage != nil,
		Statistics:     lm.stats.Summary(),
	}
	if report := lm.protocol.LastReport(); report != nil {
		status.LastRunID = report.RunID.String()
	}
	lm.protoMu.Unlock()

	lm.stateMu.RLock()
	status.State = lm.currentState.String()
	status.Error = lm.lastError
	lm.stateMu.RUnlock()

	return status
}

func (lm *LifecycleManager) broadcastStatus() {
	lm.wsHub.Broadcast(websocket.NewMessage(websocket.MessageTypeSystemStatus, lm.GetCurrentStatus()))
}

// Config returns the configuration
func (lm *LifecycleManager) Config() *config.Config {
	return lm.config
}

var _ interfaces.LifecycleManager = (*LifecycleManager)(nil)

// IsConfigurationError reports whether err stems from an invalid protocol
// definition.
func IsConfigurationError(err error) bool {
	var cfgErr *types.ConfigurationError
	return errors.As(err, &cfgErr)
}
