package protocol

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/KevinKickass/donp/internal/checksum"
	"github.com/KevinKickass/donp/internal/transform"
	"github.com/KevinKickass/donp/internal/transport"
	"github.com/KevinKickass/donp/internal/types"
	"go.uber.org/zap"
)

const (
	DefaultIterations = 10
	DefaultMode       = transform.ModeHex
	DefaultChecksum   = checksum.KindCRC16
)

// TransportFactory creates the transport used for transactions once the
// conversion and framing are known.
type TransportFactory func(conv *transform.Conversion, framing transport.Framing, timeout time.Duration, logger *zap.Logger) transport.Transport

// Protocol owns the prototypes, devices and codec components of one
// protocol definition and drives the transaction loop.
//
// Protocol is not safe for concurrent use.
type Protocol struct {
	state         State
	prefix        string
	suffix        string
	timeout       time.Duration
	sourceAddress uint
	mode          transform.Mode
	checksumKind  checksum.Kind

	prototypes []*Prototype
	devices    []*Device

	conversion *transform.Conversion
	checksum   *checksum.Checksum
	transport  transport.Transport

	iterations       int
	rand             *rand.Rand
	observers        []Observer
	transportFactory TransportFactory
	lastReport       *Report

	logger *zap.Logger
}

func simulationTransport(conv *transform.Conversion, framing transport.Framing, timeout time.Duration, logger *zap.Logger) transport.Transport {
	return transport.NewSimulation(conv, framing, timeout, logger)
}

type Option func(*Protocol)

// WithIterations sets the number of transaction passes per run.
func WithIterations(n int) Option {
	return func(p *Protocol) {
		if n > 0 {
			p.iterations = n
		}
	}
}

// WithRand sets the source used for data_bytes filler.
func WithRand(r *rand.Rand) Option {
	return func(p *Protocol) {
		if r != nil {
			p.rand = r
		}
	}
}

func WithObserver(o Observer) Option {
	return func(p *Protocol) {
		if o != nil {
			p.observers = append(p.observers, o)
		}
	}
}

// WithTransport replaces the simulated transport.
func WithTransport(f TransportFactory) Option {
	return func(p *Protocol) {
		if f != nil {
			p.transportFactory = f
		}
	}
}

func New(logger *zap.Logger, opts ...Option) *Protocol {
	p := &Protocol{
		state:            StateUnconfigured,
		iterations:       DefaultIterations,
		rand:             rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		transportFactory: simulationTransport,
		logger:           logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Configure loads a definition. On error nothing is changed.
func (p *Protocol) Configure(def *types.ProtocolDefinition) error {
	if err := ValidateTransition(p.state, StateConfigured); err != nil {
		return err
	}
	if def == nil {
		return types.NewConfigurationError("protocol", "protocol definition is required")
	}

	mode := DefaultMode
	if def.TransmissionMode != "" {
		m, err := transform.ParseMode(def.TransmissionMode)
		if err != nil {
			return &types.ConfigurationError{
				Path:   "protocol.transmission_mode",
				Reason: "unsupported transmission mode",
				Err:    err,
			}
		}
		mode = m
	}

	kind := DefaultChecksum
	if def.ChecksumCalculation != "" {
		kind = checksum.ParseKind(def.ChecksumCalculation)
		if kind == checksum.KindUnknown {
			p.logger.Warn("Unknown checksum calculation, transactions will fail validation",
				zap.String("checksum_calculation", def.ChecksumCalculation))
		}
	}

	if len(def.Prototypes) == 0 {
		return types.NewConfigurationError("protocol.prototype", "at least one prototype is required")
	}
	prototypes := make([]*Prototype, 0, len(def.Prototypes))
	for i, protoDef := range def.Prototypes {
		proto, err := NewPrototype(protoDef, fmt.Sprintf("protocol.prototype[%d]", i), p.logger)
		if err != nil {
			return err
		}
		prototypes = append(prototypes, proto)
	}

	if len(def.Devices) == 0 {
		return types.NewConfigurationError("protocol.device", "at least one device is required")
	}
	devices := make([]*Device, 0, len(def.Devices))
	for i, devDef := range def.Devices {
		dev, err := NewDevice(devDef, fmt.Sprintf("protocol.device[%d]", i))
		if err != nil {
			return err
		}
		devices = append(devices, dev)
	}

	timeout := time.Duration(def.Timeout) * time.Millisecond
	conv := transform.NewConversion(mode, p.logger)

	p.prefix = def.Prefix
	p.suffix = def.Suffix
	p.timeout = timeout
	p.sourceAddress = def.SourceAddress
	p.mode = mode
	p.checksumKind = kind
	p.prototypes = prototypes
	p.devices = devices
	p.conversion = conv
	p.checksum = checksum.NewChecksum(kind, conv, p.logger)
	p.transport = p.transportFactory(conv, transport.Framing{Prefix: def.Prefix, Suffix: def.Suffix}, timeout, p.logger)
	p.lastReport = nil
	p.state = StateConfigured

	p.logger.Info("Protocol configured",
		zap.String("mode", string(mode)),
		zap.String("checksum", string(kind)),
		zap.Int("prototypes", len(prototypes)),
		zap.Int("devices", len(devices)))

	return nil
}

func (p *Protocol) State() State { return p.state }
func (p *Protocol) Prefix() string { return p.prefix }
func (p *Protocol) Suffix() string { return p.suffix }
func (p *Protocol) Timeout() time.Duration { return p.timeout }
func (p *Protocol) SourceAddress() uint { return p.sourceAddress }
func (p *Protocol) Mode() transform.Mode { return p.mode }
func (p *Protocol) ChecksumKind() checksum.Kind { return p.checksumKind }
func (p *Protocol) Iterations() int { return p.iterations }
func (p *Protocol) Prototypes() []*Prototype { return p.prototypes }
func (p *Protocol) Devices() []*Device { return p.devices }
func (p *Protocol) Conversion() *transform.Conversion { return p.conversion }

// LastReport returns the report of the most recent run, or nil.
func (p *Protocol) LastReport() *Report {
	return p.lastReport
}

// Prototype returns the first prototype with the given name.
func (p *Protocol) Prototype(name string) (*Prototype, bool) {
	for _, proto := range p.prototypes {
		if proto.Name == name {
			return proto, true
		}
	}
	return nil, false
}

// Device returns the first device with the given name, ignoring case.
func (p *Protocol) Device(name string) (*Device, bool) {
	for _, dev := range p.devices {
		if strings.EqualFold(dev.Name, name) {
			return dev, true
		}
	}
	return nil, false
}

// Log dumps the configured model.
func (p *Protocol) Log() {
	p.logger.Info("Protocol",
		zap.Stringer("state", p.state),
		zap.String("prefix", p.prefix),
		zap.String("suffix", p.suffix),
		zap.Duration("timeout", p.timeout),
		zap.Uint("source_address", p.sourceAddress),
		zap.String("transmission_mode", string(p.mode)),
		zap.String("checksum_calculation", string(p.checksumKind)),
		zap.Int("iterations", p.iterations))
	for _, proto := range p.prototypes {
		proto.Log(p.logger)
	}
	for _, dev := range p.devices {
		dev.Log(p.logger)
	}
}
