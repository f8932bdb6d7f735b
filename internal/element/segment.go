package element

import "go.uber.org/zap"

// Role identifies how a segment obtains its value while a message is built.
type Role int

const (
	RoleNamed Role = iota
	RoleAddress
	RoleErrorCheck
	RoleByteCount
	RoleDataBytes
)

// Reserved segment names
const (
	NameSlaveAddress = "slave_address"
	NameErrorCheck   = "error_check"
	NameByteCount    = "byte_count"
	NameDataBytes    = "data_bytes"
)

// ParseRole resolves a segment name to its role. Any name that is not
// reserved is a named field looked up in the message.
func ParseRole(name string) Role {
	switch name {
	case NameSlaveAddress:
		return RoleAddress
	case NameErrorCheck:
		return RoleErrorCheck
	case NameByteCount:
		return RoleByteCount
	case NameDataBytes:
		return RoleDataBytes
	default:
		return RoleNamed
	}
}

func (r Role) String() string {
	switch r {
	case RoleAddress:
		return "address"
	case RoleErrorCheck:
		return "error_check"
	case RoleByteCount:
		return "byte_count"
	case RoleDataBytes:
		return "data_bytes"
	default:
		return "named"
	}
}

// Segment is one fixed-width field of a message layout.
type Segment struct {
	Name string `json:"name"`
	Desc string `json:"desc,omitempty"`
	Bits uint8  `json:"bits"`
	Role Role   `json:"-"`
}

// NewSegment creates a segment and resolves its role.
func NewSegment(name, desc string, bits uint8) Segment {
	return Segment{
		Name: name,
		Desc: desc,
		Bits: bits,
		Role: ParseRole(name),
	}
}

// Width returns the number of whole bytes the segment occupies.
func (s Segment) Width() int {
	return int(s.Bits) / 8
}

// Aligned reports whether the bit width is a whole number of bytes.
func (s Segment) Aligned() bool {
	return s.Bits%8 == 0
}

func (s Segment) Log(logger *zap.Logger) {
	logger.Debug("Segment",
		zap.String("name", s.Name),
		zap.String("desc", s.Desc),
		zap.Uint8("bits", s.Bits),
		zap.Stringer("role", s.Role))
}
