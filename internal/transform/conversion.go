package transform

import (
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

type Mode string

const (
	ModeHex   Mode = "hex"
	ModeASCII Mode = "ascii"
)

// ParseMode resolves a transmission mode name, ignoring case.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeHex:
		return ModeHex, nil
	case ModeASCII:
		return ModeASCII, nil
	default:
		return "", fmt.Errorf("unknown transmission mode %q", s)
	}
}

// DecodeLossError reports a byte dropped while decoding an ASCII message.
type DecodeLossError struct {
	Index int
	Value byte
}

func (e *DecodeLossError) Error() string {
	return fmt.Sprintf("transform: invalid ascii byte 0x%02X at index %d", e.Value, e.Index)
}

// Conversion moves messages between their canonical byte form and the wire
// form of the configured transmission mode.
type Conversion struct {
	mode   Mode
	logger *zap.Logger
}

func NewConversion(mode Mode, logger *zap.Logger) *Conversion {
	return &Conversion{
		mode:   mode,
		logger: logger,
	}
}

func (c *Conversion) Mode() Mode {
	return c.mode
}

// Encode renders every byte as two upper-case hex digits.
func (c *Conversion) Encode(msg []byte) []byte {
	return []byte(strings.ToUpper(hex.EncodeToString(msg)))
}

// Decode turns an ASCII-hex message back into bytes. Framing bytes inside the
// prefix or suffix window pass through untouched. Bytes that are neither
// framing nor part of a hex pair are logged and dropped.
func (c *Conversion) Decode(msg []byte, prefix, suffix string) []byte {
	out := make([]byte, 0, len(msg)/2+len(prefix)+len(suffix))
	length := len(msg)
	for i := 0; i < length; {
		b := msg[i]
		if allowed(b, prefix, suffix, i, length) {
			out = append(out, b)
			i++
			continue
		}
		if isHexDigit(b) && i+1 < length && isHexDigit(msg[i+1]) {
			out = append(out, nibble(b)<<4|nibble(msg[i+1]))
			i += 2
			continue
		}
		c.logger.Error("Dropping byte during ascii decode",
			zap.Error(&DecodeLossError{Index: i, Value: b}))
		i++
	}
	return out
}

// ToWire converts a canonical message into its wire representation.
func (c *Conversion) ToWire(msg []byte) []byte {
	if c.mode == ModeASCII {
		return c.Encode(msg)
	}
	return msg
}

// ToHex converts a wire message into its canonical byte form.
func (c *Conversion) ToHex(msg []byte, prefix, suffix string) []byte {
	if c.mode == ModeASCII {
		return c.Decode(msg, prefix, suffix)
	}
	return msg
}

// Display returns the canonical form of msg as an upper-case hex string.
func (c *Conversion) Display(msg []byte, prefix, suffix string) string {
	return strings.ToUpper(hex.EncodeToString(c.ToHex(msg, prefix, suffix)))
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'A' && b <= 'F') || (b >= 'a' && b <= 'f')
}

func nibble(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	default:
		return b - 'A' + 10
	}
}

// allowed reports whether b is a literal framing byte at position index.
func allowed(b byte, prefix, suffix string, index, length int) bool {
	if b > 127 {
		return false
	}
	if index < len(prefix) && strings.IndexByte(prefix, b) >= 0 {
		return true
	}
	if index >= length-len(suffix) && strings.IndexByte(suffix, b) >= 0 {
		return true
	}
	return false
}
