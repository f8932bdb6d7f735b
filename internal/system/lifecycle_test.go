package system

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/KevinKickass/donp/internal/config"
	"github.com/KevinKickass/donp/internal/interfaces"
	"go.uber.org/zap/zaptest"
)

const definitionJSON = `{
  "protocol": {
    "prototype": [{
      "name": "read_holding",
      "transmit": [{"name": "slave_address", "bits": 8}, {"name": "function", "bits": 8}, {"name": "error_check", "bits": 16}],
      "receive": [{"name": "slave_address", "bits": 8}, {"name": "function", "bits": 8}, {"name": "byte_count", "bits": 8},
                  {"name": "data_bytes", "bits": 8}, {"name": "error_check", "bits": 16}]
    }],
    "device": [{"name": "plc", "address": 5, "message": [{"name": "read_holding", "function": 3, "length": 2}]}]
  }
}`

func newTestManager(t *testing.T) (*LifecycleManager, string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "plc.json"), []byte(definitionJSON), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg := &config.Config{
		Protocol: config.ProtocolConfig{
			Definition:  "plc",
			SearchPaths: []string{dir},
			Iterations:  3,
			Seed:        7,
		},
	}
	lm, err := NewLifecycleManager(cfg, nil, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("new lifecycle: %v", err)
	}
	t.Cleanup(func() { lm.Shutdown(context.Background()) })
	return lm, dir
}

func TestStartAndRun(t *testing.T) {
	lm, _ := newTestManager(t)
	if err := lm.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if lm.State() != StateRunning {
		t.Fatalf("state got=%s", lm.State())
	}

	if _, err := lm.LastReport(); !errors.Is(err, interfaces.ErrNoRun) {
		t.Fatalf("expected ErrNoRun, got %v", err)
	}

	report, err := lm.RunProtocol(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Attempted != 3 || report.Succeeded != 3 {
		t.Fatalf("unexpected report: %+v", report)
	}

	status := lm.GetCurrentStatus()
	if status.State != "RUNNING" || status.DeviceCount != 1 || status.LastRunID != report.RunID.String() {
		t.Fatalf("unexpected status: %+v", status)
	}
	if status.Statistics.Runs != 1 || status.Statistics.Succeeded != 3 {
		t.Fatalf("statistics not updated: %+v", status.Statistics)
	}

	if _, err := lm.ListRuns(context.Background(), 10); !errors.Is(err, interfaces.ErrStorageDisabled) {
		t.Fatalf("expected ErrStorageDisabled, got %v", err)
	}
}

func TestSeedMakesFillerDeterministic(t *testing.T) {
	first, _ := newTestManager(t)
	second, _ := newTestManager(t)
	for _, lm := range []*LifecycleManager{first, second} {
		if err := lm.Start(); err != nil {
			t.Fatalf("start: %v", err)
		}
	}

	a, err := first.RunProtocol(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	b, err := second.RunProtocol(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if a.Results[0].RX != b.Results[0].RX {
		t.Fatalf("seeded runs differ: %s vs %s", a.Results[0].RX, b.Results[0].RX)
	}
}

func TestStartFailsOnInvalidDefinition(t *testing.T) {
	lm, dir := newTestManager(t)
	if err := os.WriteFile(filepath.Join(dir, "plc.json"), []byte(`{"protocol": {"device": []}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	err := lm.Start()
	if err == nil || !IsConfigurationError(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if lm.State() != StateError {
		t.Fatalf("state got=%s", lm.State())
	}
	if _, err := lm.RunProtocol(context.Background()); err == nil {
		t.Fatalf("run must fail without a configured protocol")
	}
}

func TestReloadKeepsPreviousDefinitionOnError(t *testing.T) {
	lm, dir := newTestManager(t)
	if err := lm.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	before := lm.ProtocolSnapshot().Devices[0].ID

	if err := os.WriteFile(filepath.Join(dir, "plc.json"), []byte(`{"protocol": {}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := lm.Reload(); !IsConfigurationError(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if lm.ProtocolSnapshot().Devices[0].ID != before || lm.State() != StateRunning {
		t.Fatalf("failed reload replaced the active definition")
	}

	if err := os.WriteFile(filepath.Join(dir, "plc.json"), []byte(definitionJSON), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := lm.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if lm.ProtocolSnapshot().Devices[0].ID == before {
		t.Fatalf("reload did not rebuild devices")
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	lm, _ := newTestManager(t)
	if err := lm.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := lm.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if err := lm.Shutdown(context.Background()); err != nil {
		t.Fatalf("second shutdown: %v", err)
	}
	if lm.State() != StateStopped {
		t.Fatalf("state got=%s", lm.State())
	}
	select {
	case <-lm.Done():
	default:
		t.Fatalf("done channel not closed after shutdown")
	}
}

func TestValidateTransition(t *testing.T) {
	if err := ValidateTransition(StateStopped, StateRunning); err == nil {
		t.Fatalf("stopped -> running must be rejected")
	}
	if err := ValidateTransition(StateRunning, StateReloading); err != nil {
		t.Fatalf("running -> reloading: %v", err)
	}
}
