package checksum

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"

	"github.com/KevinKickass/donp/internal/transform"
	"go.uber.org/zap"
)

var (
	ErrUnavailable = errors.New("checksum: unknown checksum kind")
	ErrMismatch    = errors.New("checksum: mismatch")
	ErrTruncated   = errors.New("checksum: message shorter than framing and checksum")
)

type Kind string

const (
	KindCRC16   Kind = "crc16"
	KindLRC     Kind = "lrc"
	KindUnknown Kind = "unknown"
)

// ParseKind resolves a checksum name, ignoring case. Unrecognized names map
// to KindUnknown, whose size is zero.
func ParseKind(s string) Kind {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindCRC16:
		return KindCRC16
	case KindLRC:
		return KindLRC
	default:
		return KindUnknown
	}
}

// Size returns the checksum width in bytes.
func (k Kind) Size() int {
	switch k {
	case KindCRC16:
		return 2
	case KindLRC:
		return 1
	default:
		return 0
	}
}

// LRC returns the two's complement of the byte sum of data.
func LRC(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return ^sum + 1
}

// CRC16 returns the Modbus CRC (init 0xFFFF, reflected polynomial 0xA001).
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b)
		for range 8 {
			if crc&0x0001 != 0 {
				crc = (crc >> 1) ^ 0xA001
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

// Checksum calculates and validates message checksums. Messages in ASCII mode
// are normalized through the conversion before inspection.
type Checksum struct {
	kind       Kind
	conversion *transform.Conversion
	logger     *zap.Logger
}

func NewChecksum(kind Kind, conversion *transform.Conversion, logger *zap.Logger) *Checksum {
	return &Checksum{
		kind:       kind,
		conversion: conversion,
		logger:     logger,
	}
}

func (c *Checksum) Kind() Kind {
	return c.kind
}

func (c *Checksum) Size() int {
	return c.kind.Size()
}

// Calculate computes the checksum of msg, skipping the first prefixLen bytes.
// The CRC is returned byte-swapped so that writing it big-endian puts the low
// byte on the wire first.
func (c *Checksum) Calculate(msg []byte, prefixLen int) uint64 {
	if prefixLen > len(msg) {
		prefixLen = len(msg)
	}
	body := msg[prefixLen:]
	switch c.kind {
	case KindCRC16:
		return uint64(bits.ReverseBytes16(CRC16(body)))
	case KindLRC:
		return uint64(LRC(body))
	default:
		c.logger.Warn("Unknown checksum kind", zap.String("kind", string(c.kind)))
		return 0
	}
}

// Validate checks the checksum embedded right before the suffix of msg.
func (c *Checksum) Validate(msg []byte, prefix, suffix string) error {
	size := c.Size()
	if size == 0 {
		return ErrUnavailable
	}

	hexMsg := c.conversion.ToHex(msg, prefix, suffix)
	end := len(hexMsg) - len(suffix)
	start := end - size
	if start < len(prefix) {
		return fmt.Errorf("%w: %d bytes", ErrTruncated, len(hexMsg))
	}

	var received uint64
	for _, b := range hexMsg[start:end] {
		received = received<<8 | uint64(b)
	}
	calculated := c.Calculate(hexMsg[:start], len(prefix))

	if received != calculated {
		c.logger.Warn("Checksum invalid",
			zap.String("received", fmt.Sprintf("%0*X", size*2, received)),
			zap.String("calculated", fmt.Sprintf("%0*X", size*2, calculated)))
		return fmt.Errorf("%w: received %0*X, calculated %0*X",
			ErrMismatch, size*2, received, size*2, calculated)
	}

	c.logger.Debug("Checksum valid", zap.String("checksum", fmt.Sprintf("%0*X", size*2, received)))
	return nil
}

// Valid reports whether the checksum embedded in msg is correct.
func (c *Checksum) Valid(msg []byte, prefix, suffix string) bool {
	return c.Validate(msg, prefix, suffix) == nil
}
