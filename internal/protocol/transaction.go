package protocol

import (
	"fmt"
	"time"

	"github.com/KevinKickass/donp/internal/checksum"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Run builds all transmit buffers and then performs the configured number
// of transaction passes over every device message. Transaction failures are
// recorded in the report; only state violations are returned as errors.
func (p *Protocol) Run() (*Report, error) {
	if p.state == StateUnconfigured {
		return nil, ErrNotConfigured
	}
	if err := ValidateTransition(p.state, StateRunning); err != nil {
		return nil, err
	}
	p.state = StateRunning
	defer func() { p.state = StateConfigured }()

	report := &Report{
		RunID:      uuid.New(),
		StartedAt:  time.Now(),
		Iterations: p.iterations,
	}

	p.logger.Info("Run started",
		zap.String("run_id", report.RunID.String()),
		zap.Int("iterations", p.iterations))
	for _, o := range p.observers {
		if ro, ok := o.(RunObserver); ok {
			ro.OnRunStarted(report.RunID, p.iterations)
		}
	}

	p.buildTransmit()

	for i := 1; i <= p.iterations; i++ {
		for _, dev := range p.devices {
			for _, msg := range dev.Messages {
				result := p.transact(report.RunID, i, dev, msg)
				report.add(result)
				for _, o := range p.observers {
					o.OnTransaction(result)
				}
			}
		}
	}

	report.Duration = time.Since(report.StartedAt)
	p.lastReport = report

	p.logger.Info("Run completed",
		zap.String("run_id", report.RunID.String()),
		zap.Int("attempted", report.Attempted),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Duration("duration", report.Duration))
	for _, o := range p.observers {
		if ro, ok := o.(RunObserver); ok {
			ro.OnRunCompleted(report)
		}
	}

	return report, nil
}

func (p *Protocol) transact(runID uuid.UUID, iteration int, dev *Device, msg *Message) TransactionResult {
	tx := msg.Buffer()
	result := TransactionResult{
		RunID:     runID,
		Iteration: iteration,
		Device:    dev.Name,
		Address:   dev.Address,
		Message:   msg.Name,
		Timestamp: time.Now(),
	}
	if len(tx) > 0 {
		result.TX = p.conversion.Display(tx, p.prefix, p.suffix)
	}

	fail := func(outcome Outcome, err error) TransactionResult {
		txErr := &TransactionError{
			Device:    dev.Name,
			Message:   msg.Name,
			Iteration: iteration,
			Err:       err,
		}
		p.logger.Error("Transaction failed",
			zap.String("outcome", string(outcome)),
			zap.Error(txErr))
		result.Outcome = outcome
		result.Error = txErr.Error()
		return result
	}

	proto, ok := p.Prototype(msg.Name)
	if !ok {
		return fail(OutcomePrototypeMissing, fmt.Errorf("%w: %s", ErrPrototypeNotFound, msg.Name))
	}

	rx := p.Build(proto, DirectionReceive, msg, dev)
	if len(rx) == 0 {
		return fail(OutcomeBuildEmpty, ErrEmptyReceive)
	}
	result.RX = p.conversion.Display(rx, p.prefix, p.suffix)

	if err := p.transport.Exchange(tx, rx); err != nil {
		return fail(OutcomeTransportFailed, err)
	}

	if p.checksum.Size() == 0 {
		return fail(OutcomeChecksumUnavailable, checksum.ErrUnavailable)
	}

	if err := p.checksum.Validate(rx, p.prefix, p.suffix); err != nil {
		return fail(OutcomeValidationFailed, err)
	}

	p.logger.Debug("Transaction succeeded",
		zap.String("device", dev.Name),
		zap.String("message", msg.Name),
		zap.Int("iteration", iteration))
	result.Outcome = OutcomeOK
	return result
}
