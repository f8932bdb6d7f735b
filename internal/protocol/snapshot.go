package protocol

import "github.com/google/uuid"

// Snapshot is a serializable view of the configured protocol.
type Snapshot struct {
	State         State            `json:"state"`
	Prefix        string           `json:"prefix"`
	Suffix        string           `json:"suffix"`
	TimeoutMS     int64            `json:"timeout_ms"`
	SourceAddress uint             `json:"source_address"`
	Mode          string           `json:"transmission_mode"`
	Checksum      string           `json:"checksum_calculation"`
	Iterations    int              `json:"iterations"`
	Prototypes    []*Prototype     `json:"prototypes"`
	Devices       []DeviceSnapshot `json:"devices"`
}

type DeviceSnapshot struct {
	ID       uuid.UUID         `json:"id"`
	Name     string            `json:"name"`
	Address  uint64            `json:"address"`
	Messages []MessageSnapshot `json:"messages"`
}

type MessageSnapshot struct {
	Name      string                `json:"name"`
	DataType  DataType              `json:"data_type"`
	Length    uint64                `json:"length"`
	ByteCount uint64                `json:"byte_count"`
	Fields    map[string]FieldValue `json:"fields"`
	Built     bool                  `json:"built"`
	Buffer    string                `json:"buffer,omitempty"`
}

func (p *Protocol) Snapshot() Snapshot {
	snap := Snapshot{
		State:         p.state,
		Prefix:        p.prefix,
		Suffix:        p.suffix,
		TimeoutMS:     p.timeout.Milliseconds(),
		SourceAddress: p.sourceAddress,
		Mode:          string(p.mode),
		Checksum:      string(p.checksumKind),
		Iterations:    p.iterations,
		Prototypes:    p.prototypes,
		Devices:       make([]DeviceSnapshot, 0, len(p.devices)),
	}
	for _, dev := range p.devices {
		snap.Devices = append(snap.Devices, p.DeviceSnapshot(dev))
	}
	return snap
}

func (p *Protocol) DeviceSnapshot(dev *Device) DeviceSnapshot {
	ds := DeviceSnapshot{
		ID:       dev.ID,
		Name:     dev.Name,
		Address:  dev.Address,
		Messages: make([]MessageSnapshot, 0, len(dev.Messages)),
	}
	for _, msg := range dev.Messages {
		ms := MessageSnapshot{
			Name:      msg.Name,
			DataType:  msg.DataType,
			Length:    msg.Length,
			ByteCount: msg.ByteCount(),
			Fields:    msg.Fields,
			Built:     msg.Built(),
		}
		if ms.Built {
			ms.Buffer = p.conversion.Display(msg.Buffer(), p.prefix, p.suffix)
		}
		ds.Messages = append(ds.Messages, ms)
	}
	return ds
}
