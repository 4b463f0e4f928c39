package hwdecoder

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultHardwareDeviceTypeName = HardwareDeviceTypeName("vdpau")
	DefaultMaxFrameSize           = uint64(1 << 30)
)

type Config struct {
	InputURL              string                 `json:"input_url,omitempty"               yaml:"input_url,omitempty"`
	HardwareDeviceType    HardwareDeviceTypeName `json:"hardware_device_type,omitempty"    yaml:"hardware_device_type,omitempty"`
	HardwareDeviceName    HardwareDeviceName     `json:"hardware_device_name,omitempty"    yaml:"hardware_device_name,omitempty"`
	InputOptions          DictionaryItems        `json:"input_options,omitempty"           yaml:"input_options,omitempty"`
	HardwareDeviceOptions DictionaryItems        `json:"hardware_device_options,omitempty" yaml:"hardware_device_options,omitempty"`
	ErrorPolicy           ErrorPolicy            `json:"error_policy,omitempty"            yaml:"error_policy,omitempty"`
	MaxFrameSize          uint64                 `json:"max_frame_size,omitempty"          yaml:"max_frame_size,omitempty"`
	Output                OutputConfig           `json:"output,omitempty"                  yaml:"output,omitempty"`
}

type OutputConfig struct {
	Type SinkType `json:"type,omitempty" yaml:"type,omitempty"`
	Path string   `json:"path,omitempty" yaml:"path,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		HardwareDeviceType: DefaultHardwareDeviceTypeName,
		ErrorPolicy:        ErrorPolicyAbort,
		MaxFrameSize:       DefaultMaxFrameSize,
		Output: OutputConfig{
			Type: SinkTypeDiscard,
		},
	}
}

// LoadConfig reads a YAML config file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("unable to read the config file '%s': %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("unable to parse the config file '%s': %w", path, err)
	}
	return cfg, nil
}

func (cfg Config) Validate() error {
	if cfg.InputURL == "" {
		return fmt.Errorf("the input is not set")
	}
	if cfg.HardwareDeviceType == "" {
		return fmt.Errorf("the hardware device type is not set")
	}
	if cfg.ErrorPolicy == ErrorPolicyUndefined || cfg.ErrorPolicy >= EndOfErrorPolicy {
		return fmt.Errorf("invalid error policy: %s", cfg.ErrorPolicy.String())
	}
	if cfg.MaxFrameSize == 0 {
		return fmt.Errorf("max frame size must be positive")
	}
	switch cfg.Output.Type {
	case SinkTypeDiscard:
	case SinkTypeRawFile:
		if cfg.Output.Path == "" {
			return fmt.Errorf("output type '%s' requires a path", cfg.Output.Type.String())
		}
	default:
		return fmt.Errorf("invalid output type: %s", cfg.Output.Type.String())
	}
	return nil
}

// ErrorPolicy defines what happens when a single packet fails to decode.
type ErrorPolicy uint

const (
	ErrorPolicyUndefined = ErrorPolicy(iota)
	ErrorPolicyAbort
	ErrorPolicySkip
	EndOfErrorPolicy
)

func (p *ErrorPolicy) String() string {
	if p == nil {
		return "null"
	}

	switch *p {
	case ErrorPolicyUndefined:
		return "<undefined>"
	case ErrorPolicyAbort:
		return "abort"
	case ErrorPolicySkip:
		return "skip"
	}
	return fmt.Sprintf("unexpected_error_policy_%d", uint(*p))
}

func (p *ErrorPolicy) Set(s string) error {
	s = strings.ToLower(strings.Trim(s, `"`))
	for cmp := ErrorPolicyAbort; cmp < EndOfErrorPolicy; cmp++ {
		if cmp.String() == s {
			*p = cmp
			return nil
		}
	}
	return fmt.Errorf("unknown value of the ErrorPolicy: '%s'", s)
}

func (*ErrorPolicy) Type() string {
	return "error-policy"
}

func (p ErrorPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *ErrorPolicy) UnmarshalText(b []byte) error {
	if p == nil {
		return fmt.Errorf("ErrorPolicy is nil")
	}
	return p.Set(string(b))
}

func (p ErrorPolicy) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *ErrorPolicy) UnmarshalJSON(b []byte) error {
	if p == nil {
		return fmt.Errorf("ErrorPolicy is nil")
	}
	return p.Set(string(b))
}

// SinkType selects where decoded frames go after being packed.
type SinkType uint

const (
	SinkTypeUndefined = SinkType(iota)
	SinkTypeDiscard
	SinkTypeRawFile
	EndOfSinkType
)

func (t *SinkType) String() string {
	if t == nil {
		return "null"
	}

	switch *t {
	case SinkTypeUndefined:
		return "<undefined>"
	case SinkTypeDiscard:
		return "discard"
	case SinkTypeRawFile:
		return "rawfile"
	}
	return fmt.Sprintf("unexpected_sink_type_%d", uint(*t))
}

func (t *SinkType) Set(s string) error {
	s = strings.ToLower(strings.Trim(s, `"`))
	for cmp := SinkTypeDiscard; cmp < EndOfSinkType; cmp++ {
		if cmp.String() == s {
			*t = cmp
			return nil
		}
	}
	return fmt.Errorf("unknown value of the SinkType: '%s'", s)
}

func (*SinkType) Type() string {
	return "sink-type"
}

func (t SinkType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *SinkType) UnmarshalText(b []byte) error {
	if t == nil {
		return fmt.Errorf("SinkType is nil")
	}
	return t.Set(string(b))
}

func (t SinkType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *SinkType) UnmarshalJSON(b []byte) error {
	if t == nil {
		return fmt.Errorf("SinkType is nil")
	}
	return t.Set(string(b))
}
