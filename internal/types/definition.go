package types

// ProtocolFile is the top-level document of a protocol definition.
type ProtocolFile struct {
	Protocol *ProtocolDefinition `json:"protocol"`
}

// ProtocolDefinition declares framing, encoding and the message model of a protocol.
type ProtocolDefinition struct {
	Prefix              string                `json:"prefix,omitempty"`
	Suffix              string                `json:"suffix,omitempty"`
	Timeout             uint                  `json:"timeout,omitempty"` // milliseconds
	SourceAddress       uint                  `json:"source_address,omitempty"`
	TransmissionMode    string                `json:"transmission_mode,omitempty"`
	ChecksumCalculation string                `json:"checksum_calculation,omitempty"`
	Prototypes          []PrototypeDefinition `json:"prototype"`
	Devices             []DeviceDefinition    `json:"device"`
}

type PrototypeDefinition struct {
	Name     string              `json:"name"`
	Desc     string              `json:"desc,omitempty"`
	Transmit []SegmentDefinition `json:"transmit"`
	Receive  []SegmentDefinition `json:"receive"`
}

type SegmentDefinition struct {
	Name string `json:"name"`
	Desc string `json:"desc,omitempty"`
	Bits *uint  `json:"bits"`
}

type DeviceDefinition struct {
	Name     string              `json:"name,omitempty"`
	Address  uint64              `json:"address,omitempty"`
	Messages []MessageDefinition `json:"message"`
}

// MessageDefinition holds a message's name plus arbitrary field values.
// Keys other than "name" are fields consumed by prototype segments.
type MessageDefinition map[string]any

// Reserved message keys
const (
	MessageKeyName     = "name"
	MessageKeyDataType = "data_type"
	MessageKeyLength   = "length"
)

// Name returns the message name, or "" when missing or not a string.
func (m MessageDefinition) Name() string {
	name, _ := m[MessageKeyName].(string)
	return name
}

// Bits is a helper for building segment definitions in code.
func Bits(n uint) *uint {
	return &n
}
