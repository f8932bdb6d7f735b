package protocol

import (
	"fmt"
	"math"

	"github.com/KevinKickass/donp/internal/element"
	"github.com/KevinKickass/donp/internal/types"
	"go.uber.org/zap"
)

type Direction string

const (
	DirectionTransmit Direction = "transmit"
	DirectionReceive  Direction = "receive"
)

// Prototype is a named message template with separate segment layouts for
// each direction.
type Prototype struct {
	Name     string            `json:"name"`
	Desc     string            `json:"desc,omitempty"`
	Transmit []element.Segment `json:"transmit"`
	Receive  []element.Segment `json:"receive"`
}

// NewPrototype builds a prototype from its definition. Segment roles are
// resolved here, once.
func NewPrototype(def types.PrototypeDefinition, path string, logger *zap.Logger) (*Prototype, error) {
	if def.Name == "" {
		return nil, types.NewConfigurationError(path+".name", "prototype name is required")
	}

	tx, err := newSegments(def.Transmit, path+".transmit", logger)
	if err != nil {
		return nil, err
	}
	rx, err := newSegments(def.Receive, path+".receive", logger)
	if err != nil {
		return nil, err
	}

	return &Prototype{
		Name:     def.Name,
		Desc:     def.Desc,
		Transmit: tx,
		Receive:  rx,
	}, nil
}

func newSegments(defs []types.SegmentDefinition, path string, logger *zap.Logger) ([]element.Segment, error) {
	if len(defs) == 0 {
		return nil, types.NewConfigurationError(path, "at least one segment is required")
	}

	segments := make([]element.Segment, 0, len(defs))
	for i, def := range defs {
		segPath := fmt.Sprintf("%s[%d]", path, i)
		if def.Name == "" {
			return nil, types.NewConfigurationError(segPath+".name", "segment name is required")
		}
		if def.Bits == nil {
			return nil, types.NewConfigurationError(segPath+".bits", "segment bits are required")
		}
		if *def.Bits > math.MaxUint8 {
			return nil, types.NewConfigurationError(segPath+".bits", fmt.Sprintf("%d exceeds 255", *def.Bits))
		}

		seg := element.NewSegment(def.Name, def.Desc, uint8(*def.Bits))
		if !seg.Aligned() {
			logger.Warn("Segment width is not byte aligned, truncating",
				zap.String("path", segPath),
				zap.Uint8("bits", seg.Bits),
				zap.Int("bytes", seg.Width()))
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

// Segments returns the layout for a direction.
func (p *Prototype) Segments(dir Direction) ([]element.Segment, bool) {
	switch dir {
	case DirectionTransmit:
		return p.Transmit, true
	case DirectionReceive:
		return p.Receive, true
	default:
		return nil, false
	}
}

func (p *Prototype) Log(logger *zap.Logger) {
	logger.Debug("Prototype",
		zap.String("name", p.Name),
		zap.String("desc", p.Desc),
		zap.Int("transmit_segments", len(p.Transmit)),
		zap.Int("receive_segments", len(p.Receive)))
	for _, seg := range p.Transmit {
		seg.Log(logger.With(zap.String("direction", string(DirectionTransmit))))
	}
	for _, seg := range p.Receive {
		seg.Log(logger.With(zap.String("direction", string(DirectionReceive))))
	}
}
