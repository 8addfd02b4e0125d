package hfmodem

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is a per-rig configuration document, loaded from a single
// structured YAML file rather than a line-oriented directive format
// (§2 "Configuration").
type Config struct {
	Rig      string `yaml:"rig"`
	SelfAddr uint16 `yaml:"self_addr"`

	Duplex    string `yaml:"duplex"` // "full", "tx_master", "rx_master"
	Waveform  string `yaml:"waveform"`
	BWKHz     int    `yaml:"bw_khz"`
	Interleaver string `yaml:"interleaver"`

	Timeouts TimeoutConfig `yaml:"timeouts"`

	MaxQueueBytes int `yaml:"max_queue_bytes"`

	Capture CaptureConfig `yaml:"capture"`

	Adapters AdapterConfig `yaml:"adapters"`
}

// Duration is time.Duration with a YAML unmarshaler that accepts
// Go duration strings ("200ms", "30s"), since yaml.v3 has no built-in
// notion of time.Duration.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("hfmodem: invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// TimeoutConfig carries the §5 tunable timer defaults.
type TimeoutConfig struct {
	LBT        Duration `yaml:"t_lbt"`
	LBR        Duration `yaml:"t_lbr"`
	Tune       Duration `yaml:"t_tune"`
	Handshake  Duration `yaml:"t_handshake"`
	Response   Duration `yaml:"t_response"`
	Activity   Duration `yaml:"t_activity"`
	RxIdle     Duration `yaml:"rx_idle"`
	Drain      Duration `yaml:"drain"`
	DrainForce Duration `yaml:"drain_force"`
}

// DefaultTimeoutConfig returns the §5 timeout defaults.
func DefaultTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{
		LBT:        Duration(200 * time.Millisecond),
		LBR:        Duration(200 * time.Millisecond),
		Tune:       Duration(40 * time.Millisecond),
		Handshake:  Duration(100 * time.Millisecond),
		Response:   Duration(2000 * time.Millisecond),
		Activity:   Duration(30 * time.Second),
		RxIdle:     Duration(500 * time.Millisecond),
		Drain:      Duration(30 * time.Second),
		DrainForce: Duration(1 * time.Second),
	}
}

// CaptureConfig controls the strftime-named session capture writer.
type CaptureConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
	Pattern string `yaml:"pattern"` // strftime format, e.g. "%Y%m%d-%H%M%S-rx.iq"
}

// AdapterConfig carries host-adapter endpoint settings (§2, §3).
type AdapterConfig struct {
	KISSNetPort   int    `yaml:"kiss_net_port"`
	KISSPTYPath   string `yaml:"kiss_pty_path"`
	DNSSDAdvertise bool  `yaml:"dnssd_advertise"`
	RigctldAddr   string `yaml:"rigctld_addr"`
	AudioDevice   string `yaml:"audio_device"`
}

// DefaultConfig returns a Config with every timeout and queue default
// filled in, for callers that only want to override a few fields.
func DefaultConfig() Config {
	return Config{
		Duplex:        "full",
		Waveform:      "serial110d",
		BWKHz:         3,
		Timeouts:      DefaultTimeoutConfig(),
		MaxQueueBytes: 64 * 1024,
		Capture:       CaptureConfig{Pattern: "%Y%m%d-%H%M%S-%{rig}.iq"},
	}
}

// LoadConfig reads and parses a YAML config file, starting from
// DefaultConfig so the document only needs to specify overrides.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("hfmodem: reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("hfmodem: parsing config %s: %w", path, err)
	}
	return cfg, nil
}
