package protocol

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KevinKickass/donp/internal/types"
	"go.uber.org/zap"
)

type DataType string

const (
	DataTypeInt16  DataType = "int16"
	DataTypeInt32  DataType = "int32"
	DataTypeFloat  DataType = "float"
	DataTypeString DataType = "string"
	DataTypeBit    DataType = "bit"
)

const (
	// MaxLength is the largest accepted length value.
	MaxLength = math.MaxUint32
	// MaxPayloadBytes bounds the data_bytes filler of a single message.
	MaxPayloadBytes = 1 << 20
)

// Message is a named set of field values plus the buffer built from it.
type Message struct {
	Name     string
	Fields   map[string]FieldValue
	DataType DataType
	Length   uint64
	buffer   []byte
}

// NewMessage classifies a message definition into closed field kinds. Only
// a length whose payload cannot be built is rejected.
func NewMessage(def types.MessageDefinition, path string) (*Message, error) {
	name := def.Name()
	if name == "" {
		return nil, types.NewConfigurationError(path+".name", "message name is required")
	}

	msg := &Message{
		Name:     name,
		Fields:   make(map[string]FieldValue, len(def)),
		DataType: DataTypeInt16,
	}

	for key, raw := range def {
		if key == types.MessageKeyName {
			continue
		}
		msg.Fields[key] = ParseFieldValue(raw)
	}

	// A data_type that is not a string keeps int16; a length that is not an
	// unsigned integer counts as zero.
	if dt, ok := msg.Fields[types.MessageKeyDataType]; ok && dt.Kind == KindString {
		msg.DataType = DataType(strings.ToLower(dt.Str()))
	}
	if length, ok := msg.Fields[types.MessageKeyLength]; ok {
		msg.Length = length.Uint()
	}

	if msg.Length > MaxLength {
		return nil, types.NewConfigurationError(path+"."+types.MessageKeyLength,
			fmt.Sprintf("%d exceeds %d", msg.Length, uint64(MaxLength)))
	}
	if n := msg.ByteCount(); n > MaxPayloadBytes {
		return nil, types.NewConfigurationError(path+"."+types.MessageKeyLength,
			fmt.Sprintf("payload of %d bytes exceeds %d", n, MaxPayloadBytes))
	}

	return msg, nil
}

// ByteCount returns the payload size implied by data type and length.
// Unknown data types yield zero.
func (m *Message) ByteCount() uint64 {
	switch m.DataType {
	case DataTypeBit:
		return (m.Length + 7) / 8
	case DataTypeInt16:
		return m.Length * 2
	case DataTypeInt32, DataTypeFloat:
		return m.Length * 4
	case DataTypeString:
		return m.Length
	default:
		return 0
	}
}

// Field returns the value of a named field.
func (m *Message) Field(name string) (FieldValue, bool) {
	v, ok := m.Fields[name]
	return v, ok
}

// SetBuffer stores the encoded message. Only the first non-empty buffer is kept.
func (m *Message) SetBuffer(buf []byte) {
	if len(m.buffer) == 0 && len(buf) > 0 {
		m.buffer = append([]byte(nil), buf...)
	}
}

// Buffer returns a copy of the encoded message.
func (m *Message) Buffer() []byte {
	return append([]byte(nil), m.buffer...)
}

// Built reports whether the message buffer has been populated.
func (m *Message) Built() bool {
	return len(m.buffer) > 0
}

func (m *Message) Log(logger *zap.Logger) {
	keys := make([]string, 0, len(m.Fields))
	for k := range m.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]zap.Field, 0, len(keys)+3)
	fields = append(fields,
		zap.String("name", m.Name),
		zap.String("data_type", string(m.DataType)),
		zap.Uint64("byte_count", m.ByteCount()))
	for _, k := range keys {
		fields = append(fields, zap.String("field."+k, fmt.Sprintf("%v", m.Fields[k].display())))
	}
	logger.Debug("Message", fields...)
}

func (f FieldValue) display() any {
	switch f.Kind {
	case KindString:
		return f.text
	case KindBytes:
		return f.raw
	case KindOther:
		return f.other
	default:
		return f.num
	}
}
