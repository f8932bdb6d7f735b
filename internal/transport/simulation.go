package transport

import (
	"errors"
	"time"

	"github.com/KevinKickass/donp/internal/transform"
	"go.uber.org/zap"
)

var (
	ErrEmptyTransmit = errors.New("transport: empty transmit buffer")
	ErrEmptyReceive  = errors.New("transport: empty receive buffer")
)

// Transport exchanges one transmit buffer for one receive buffer.
type Transport interface {
	Exchange(tx, rx []byte) error
}

// Framing describes the literal prefix and suffix used for display.
type Framing struct {
	Prefix string
	Suffix string
}

// Simulation stands in for a real transport. It only checks that both
// buffers are present and logs them; nothing is transmitted.
type Simulation struct {
	conversion *transform.Conversion
	framing    Framing
	timeout    time.Duration
	logger     *zap.Logger
}

func NewSimulation(conversion *transform.Conversion, framing Framing, timeout time.Duration, logger *zap.Logger) *Simulation {
	return &Simulation{
		conversion: conversion,
		framing:    framing,
		timeout:    timeout,
		logger:     logger,
	}
}

// Exchange simulates transmitting tx and receiving rx.
func (s *Simulation) Exchange(tx, rx []byte) error {
	if len(tx) == 0 {
		s.logger.Error("Simulated TX failed", zap.Error(ErrEmptyTransmit))
		return ErrEmptyTransmit
	}
	s.logger.Info("Simulated TX",
		zap.String("data", s.conversion.Display(tx, s.framing.Prefix, s.framing.Suffix)),
		zap.Duration("timeout", s.timeout))

	if len(rx) == 0 {
		s.logger.Error("Simulated RX failed", zap.Error(ErrEmptyReceive))
		return ErrEmptyReceive
	}
	s.logger.Info("Simulated RX",
		zap.String("data", s.conversion.Display(rx, s.framing.Prefix, s.framing.Suffix)))

	return nil
}

// Simulate reports whether the exchange succeeded.
func (s *Simulation) Simulate(tx, rx []byte) bool {
	return s.Exchange(tx, rx) == nil
}
