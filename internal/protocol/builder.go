package protocol

import (
	"github.com/KevinKickass/donp/internal/element"
	"go.uber.org/zap"
)

// Build encodes msg for dev using the prototype's segment layout for dir and
// returns the wire form. Segments naming a field the message does not carry
// contribute no bytes.
func (p *Protocol) Build(proto *Prototype, dir Direction, msg *Message, dev *Device) []byte {
	segments, ok := proto.Segments(dir)
	if !ok {
		p.logger.Error("Unknown direction", zap.String("direction", string(dir)))
		return nil
	}

	buf := make([]byte, 0, len(p.prefix)+len(p.suffix)+16)
	buf = append(buf, p.prefix...)

	for _, seg := range segments {
		switch seg.Role {
		case element.RoleAddress:
			buf = element.AppendUint(buf, dev.Address, seg.Width())
		case element.RoleErrorCheck:
			buf = element.AppendUint(buf, p.checksum.Calculate(buf, len(p.prefix)), seg.Width())
		case element.RoleByteCount:
			buf = element.AppendUint(buf, msg.ByteCount(), seg.Width())
		case element.RoleDataBytes:
			buf = element.AppendFiller(buf, int(msg.ByteCount()), p.rand)
		case element.RoleNamed:
			field, ok := msg.Field(seg.Name)
			if !ok {
				p.logger.Debug("Message has no value for segment",
					zap.String("message", msg.Name),
					zap.String("segment", seg.Name))
				continue
			}
			buf = element.AppendUint(buf, field.Uint(), seg.Width())
		}
	}

	buf = append(buf, p.suffix...)
	return p.conversion.ToWire(buf)
}

// buildTransmit populates the transmit buffer of every message that has a
// matching prototype.
func (p *Protocol) buildTransmit() {
	for _, dev := range p.devices {
		for _, msg := range dev.Messages {
			proto, ok := p.Prototype(msg.Name)
			if !ok {
				p.logger.Debug("No prototype for message, leaving it unbuilt",
					zap.String("device", dev.Name),
					zap.String("message", msg.Name))
				continue
			}
			msg.SetBuffer(p.Build(proto, DirectionTransmit, msg, dev))
		}
	}
}
