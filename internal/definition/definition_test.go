package definition

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/KevinKickass/donp/internal/protocol"
	"github.com/KevinKickass/donp/internal/types"
	"go.uber.org/zap/zaptest"
)

const validJSON = `{
  "protocol": {
    "checksum_calculation": "crc16",
    "prototype": [
      {
        "name": "read_holding",
        "transmit": [{"name": "slave_address", "bits": 8}, {"name": "function", "bits": 8}, {"name": "error_check", "bits": 16}],
        "receive": [{"name": "slave_address", "bits": 8}, {"name": "function", "bits": 8}, {"name": "error_check", "bits": 16}]
      }
    ],
    "device": [
      {"name": "plc", "address": 5, "message": [{"name": "read_holding", "function": 3, "flags": [1, 2]}]}
    ]
  }
}`

func newValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	return v
}

func TestParseJSON(t *testing.T) {
	def, err := Parse(newValidator(t), []byte(validJSON), FormatJSON)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(def.Prototypes) != 1 || len(def.Devices) != 1 {
		t.Fatalf("unexpected definition: %+v", def)
	}
	if *def.Prototypes[0].Transmit[2].Bits != 16 {
		t.Fatalf("bits got=%d", *def.Prototypes[0].Transmit[2].Bits)
	}
	if got, ok := def.Devices[0].Messages[0]["function"].(json.Number); !ok || got.String() != "3" {
		t.Fatalf("field decoded as %#v", def.Devices[0].Messages[0]["function"])
	}
}

func TestParseYAML(t *testing.T) {
	data := []byte(`
protocol:
  prefix: ":"
  suffix: "\r\n"
  transmission_mode: ascii
  checksum_calculation: lrc
  prototype:
    - name: ping
      transmit: [{name: slave_address, bits: 8}, {name: error_check, bits: 8}]
      receive: [{name: slave_address, bits: 8}, {name: error_check, bits: 8}]
  device:
    - address: 17
      message:
        - name: ping
`)
	def, err := Parse(newValidator(t), data, FormatYAML)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if def.Suffix != "\r\n" || def.TransmissionMode != "ascii" || def.Devices[0].Address != 17 {
		t.Fatalf("unexpected definition: %+v", def)
	}
}

func TestParseRejectsInvalidDefinitions(t *testing.T) {
	tests := map[string]string{
		"missing receive": `{"protocol": {"prototype": [{"name": "p", "transmit": [{"name": "a", "bits": 8}]}],
			"device": [{"message": [{"name": "p"}]}]}}`,
		"missing device": `{"protocol": {"prototype": [{"name": "p", "transmit": [{"name": "a", "bits": 8}], "receive": [{"name": "a", "bits": 8}]}]}}`,
		"bits too wide": `{"protocol": {"prototype": [{"name": "p", "transmit": [{"name": "a", "bits": 300}], "receive": [{"name": "a", "bits": 8}]}],
			"device": [{"message": [{"name": "p"}]}]}}`,
		"length out of range": `{"protocol": {"prototype": [{"name": "p", "transmit": [{"name": "a", "bits": 8}], "receive": [{"name": "a", "bits": 8}]}],
			"device": [{"message": [{"name": "p", "length": 4294967296}]}]}}`,
		"empty messages": `{"protocol": {"prototype": [{"name": "p", "transmit": [{"name": "a", "bits": 8}], "receive": [{"name": "a", "bits": 8}]}],
			"device": [{"message": []}]}}`,
		"not json": `{"protocol":`,
	}

	v := newValidator(t)
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(v, []byte(doc), FormatJSON)
			var cfgErr *types.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigurationError, got %v", err)
			}
		})
	}
}

func TestParseAcceptsArbitraryFieldValues(t *testing.T) {
	doc := `{"protocol": {
		"prototype": [{"name": "p",
			"transmit": [{"name": "function", "bits": 8}, {"name": "scale", "bits": 8}],
			"receive": [{"name": "function", "bits": 8}, {"name": "error_check", "bits": 16}]}],
		"device": [{"message": [{"name": "p", "function": 2.5, "scale": 1.5, "offset": -1,
			"extra": {"x": 1}, "none": null, "mixed": [1, "a"], "data_type": 5, "length": "two"}]}]}}`

	def, err := Parse(newValidator(t), []byte(doc), FormatJSON)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	p := protocol.New(zaptest.NewLogger(t))
	if err := p.Configure(def); err != nil {
		t.Fatalf("configure: %v", err)
	}
	msg := p.Devices()[0].Messages[0]
	for _, key := range []string{"function", "scale", "offset", "extra", "none", "mixed"} {
		field, _ := msg.Field(key)
		if field.Kind != protocol.KindOther || field.Uint() != 0 {
			t.Fatalf("%s: kind=%s value=%d", key, field.Kind, field.Uint())
		}
	}
	if msg.DataType != protocol.DataTypeInt16 || msg.Length != 0 {
		t.Fatalf("reserved keys not defaulted: data_type=%s length=%d", msg.DataType, msg.Length)
	}
}

func TestSchemaErrorPath(t *testing.T) {
	doc := `{"protocol": {"prototype": [{"name": "p", "transmit": [{"name": "a", "bits": 8}]}],
		"device": [{"message": [{"name": "p"}]}]}}`
	err := newValidator(t).ValidateJSON([]byte(doc))
	var cfgErr *types.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if cfgErr.Path != "protocol.prototype[0]" {
		t.Fatalf("path got=%s", cfgErr.Path)
	}
}

func TestLoaderSearchPathsAndCache(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	if err := os.WriteFile(filepath.Join(second, "plc.json"), []byte(validJSON), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	loader, err := NewLoader([]string{first, second}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("loader: %v", err)
	}

	def, err := loader.Load("plc")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := os.Remove(filepath.Join(second, "plc.json")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	cached, err := loader.Load("plc")
	if err != nil || cached != def {
		t.Fatalf("expected cached definition, got %v", err)
	}

	loader.ClearCache()
	if _, err := loader.Load("plc"); err == nil {
		t.Fatalf("expected not found after cache clear")
	}
}

func TestLoaderDirectPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.json")
	if err := os.WriteFile(path, []byte(validJSON), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	loader, err := NewLoader(nil, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("loader: %v", err)
	}
	if _, err := loader.Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}
}

func TestBundledDefinitionsRun(t *testing.T) {
	loader, err := NewLoader([]string{filepath.Join("..", "..", "configs", "protocols")}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("loader: %v", err)
	}

	for _, name := range []string{"modbus_rtu", "modbus_ascii"} {
		t.Run(name, func(t *testing.T) {
			def, err := loader.Load(name)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			p := protocol.New(zaptest.NewLogger(t), protocol.WithIterations(2))
			if err := p.Configure(def); err != nil {
				t.Fatalf("configure: %v", err)
			}
			report, err := p.Run()
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if report.Failed != 0 || report.Attempted == 0 {
				t.Fatalf("unexpected report: %+v", report.Results)
			}
		})
	}
}
