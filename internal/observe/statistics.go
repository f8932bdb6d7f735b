package observe

import (
	"sync"
	"time"

	"github.com/KevinKickass/donp/internal/protocol"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Statistics tracks elapsed time and transaction counts across runs.
type Statistics struct {
	mu        sync.Mutex
	startTime time.Time
	endTime   time.Time
	runs      int
	succeeded int
	failed    int
	logger    *zap.Logger
}

func NewStatistics(logger *zap.Logger) *Statistics {
	return &Statistics{logger: logger}
}

func (s *Statistics) StartTime() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startTime = time.Now()
	s.endTime = time.Time{}
	s.logger.Debug("Statistics start time recorded")
}

func (s *Statistics) StopTime() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endTime = time.Now()
	s.logger.Debug("Statistics end time recorded")
}

// Elapsed returns the time between StartTime and StopTime, or zero when the
// timer was not started and stopped.
func (s *Statistics) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsedLocked()
}

func (s *Statistics) elapsedLocked() time.Duration {
	if s.startTime.IsZero() || s.endTime.IsZero() {
		return 0
	}
	return s.endTime.Sub(s.startTime)
}

func (s *Statistics) OnTransaction(result protocol.TransactionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if result.OK() {
		s.succeeded++
	} else {
		s.failed++
	}
}

func (s *Statistics) OnRunStarted(uuid.UUID, int) {
	s.StartTime()
}

func (s *Statistics) OnRunCompleted(*protocol.Report) {
	s.StopTime()
	s.mu.Lock()
	s.runs++
	s.mu.Unlock()
	s.Log()
}

// Summary is a point-in-time copy of the counters.
type Summary struct {
	Runs      int           `json:"runs"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Elapsed   time.Duration `json:"elapsed"`
}

func (s *Statistics) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summary{
		Runs:      s.runs,
		Succeeded: s.succeeded,
		Failed:    s.failed,
		Elapsed:   s.elapsedLocked(),
	}
}

func (s *Statistics) Log() {
	sum := s.Summary()
	if sum.Elapsed == 0 {
		s.logger.Error("Statistics timer has not been started and/or stopped")
	}
	s.logger.Info("Statistics",
		zap.Float64("elapsed_seconds", sum.Elapsed.Seconds()),
		zap.Int("runs", sum.Runs),
		zap.Int("succeeded", sum.Succeeded),
		zap.Int("failed", sum.Failed))
}

func (s *Statistics) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startTime = time.Time{}
	s.endTime = time.Time{}
	s.runs = 0
	s.succeeded = 0
	s.failed = 0
	s.logger.Debug("Statistics reset")
}
