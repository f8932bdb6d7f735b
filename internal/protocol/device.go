package protocol

import (
	"fmt"

	"github.com/KevinKickass/donp/internal/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultDeviceName = "Unknown"

// Device is an addressed endpoint owning the messages exchanged with it.
type Device struct {
	ID       uuid.UUID
	Name     string
	Address  uint64
	Messages []*Message
}

func NewDevice(def types.DeviceDefinition, path string) (*Device, error) {
	name := def.Name
	if name == "" {
		name = defaultDeviceName
	}

	if len(def.Messages) == 0 {
		return nil, types.NewConfigurationError(path+".message",
			fmt.Sprintf("device %s must declare at least one message", name))
	}

	messages := make([]*Message, 0, len(def.Messages))
	for i, msgDef := range def.Messages {
		msg, err := NewMessage(msgDef, fmt.Sprintf("%s.message[%d]", path, i))
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return &Device{
		ID:       uuid.New(),
		Name:     name,
		Address:  def.Address,
		Messages: messages,
	}, nil
}

// Message returns the first message with the given name.
func (d *Device) Message(name string) (*Message, bool) {
	for _, msg := range d.Messages {
		if msg.Name == name {
			return msg, true
		}
	}
	return nil, false
}

func (d *Device) Log(logger *zap.Logger) {
	logger.Debug("Device",
		zap.String("id", d.ID.String()),
		zap.String("name", d.Name),
		zap.Uint64("address", d.Address),
		zap.Int("messages", len(d.Messages)))
	for _, msg := range d.Messages {
		msg.Log(logger)
	}
}
