package config

import (
	"fmt"
	"os"
	"time"

	"github.com/itohio/goldat/pkg/lightsensor"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	Sensor  SensorConfig  `yaml:"sensor"`
	Latency LatencyConfig `yaml:"latency"`
	Display DisplayConfig `yaml:"display"`
	Mock    MockConfig    `yaml:"mock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// SensorConfig selects the options sent with the light sensor command.
type SensorConfig struct {
	Autofire    bool `yaml:"autofire"`
	NoBuffer    bool `yaml:"nobuffer"`
	Monitor     bool `yaml:"monitor"`
	NoClick     bool `yaml:"noclick"`
	FastADC     bool `yaml:"fastadc"`
	Sensitivity int  `yaml:"sensitivity"` // 0 (lowest gain) to 3 (max gain)
}

// LatencyConfig contains click-to-photon analysis parameters.
type LatencyConfig struct {
	Duration      time.Duration `yaml:"duration"`       // Recording length of one measurement
	WhiteFraction float64       `yaml:"white_fraction"` // Rising threshold as a fraction of the black-to-max range
	BlackFraction float64       `yaml:"black_fraction"` // Falling threshold as a fraction of the black-to-max range
	MinContrast   float64       `yaml:"min_contrast"`   // Minimum black-to-max range in ADC counts
}

// DisplayConfig contains scope display parameters.
type DisplayConfig struct {
	WindowSeconds  float64 `yaml:"window_seconds"`
	AverageSamples int     `yaml:"average_samples"` // Number of samples to average (0 = disabled, default)
}

// MockConfig contains mock device configuration.
type MockConfig struct {
	Ambient       float64       `yaml:"ambient"`        // Dark screen level as a fraction of full scale at lowest gain
	Brightness    float64       `yaml:"brightness"`     // Flash level above ambient as a fraction of full scale
	NoiseLevel    float64       `yaml:"noise_level"`    // Noise amplitude as a fraction of full scale
	LightDelay    time.Duration `yaml:"light_delay"`    // Click to flash latency of the simulated screen
	FlashDuration time.Duration `yaml:"flash_duration"` // How long a flash stays lit
	ButtonPeriod  time.Duration `yaml:"button_period"`  // Time between simulated button presses (0 = never)
	Bounces       int           `yaml:"bounces"`        // Extra edges per simulated button transition
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port: "COM3", // Default for Windows, should be "/dev/ttyACM0" on Linux/Mac
			Baud: 2000000,
		},
		Sensor: SensorConfig{
			FastADC:     true,
			Sensitivity: 3,
		},
		Latency: LatencyConfig{
			Duration:      10 * time.Second,
			WhiteFraction: 0.3,
			BlackFraction: 0.7,
			MinContrast:   32,
		},
		Display: DisplayConfig{
			WindowSeconds:  2,
			AverageSamples: 0, // No averaging by default
		},
		Mock: MockConfig{
			Ambient:       0.02,
			Brightness:    0.1,
			NoiseLevel:    0.002,
			LightDelay:    25 * time.Millisecond,
			FlashDuration: 150 * time.Millisecond,
			ButtonPeriod:  700 * time.Millisecond,
			Bounces:       3,
		},
	}
}

// Flags returns the option byte for the light sensor command.
func (s SensorConfig) Flags() lightsensor.Flags {
	var f lightsensor.Flags
	if s.Autofire {
		f |= lightsensor.FlagAutofire
	}
	if s.NoBuffer {
		f |= lightsensor.FlagNoBuffer
	}
	if s.Monitor {
		f |= lightsensor.FlagMonitor
	}
	if s.NoClick {
		f |= lightsensor.FlagNoClick
	}
	if s.FastADC {
		f |= lightsensor.FlagFastADC
	}
	if s.Sensitivity&1 != 0 {
		f |= lightsensor.FlagHighSens1
	}
	if s.Sensitivity&2 != 0 {
		f |= lightsensor.FlagHighSens2
	}
	return f
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Ensure minimum required fields are set (use defaults if missing)
	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate rejects values that cannot be turned into a device command or analysis.
func (c *Config) Validate() error {
	if c.Sensor.Sensitivity < 0 || c.Sensor.Sensitivity > 3 {
		return fmt.Errorf("sensor sensitivity must be 0-3, got %d", c.Sensor.Sensitivity)
	}
	if c.Latency.WhiteFraction < 0 || c.Latency.WhiteFraction > 1 {
		return fmt.Errorf("latency white_fraction must be within 0-1, got %g", c.Latency.WhiteFraction)
	}
	if c.Latency.BlackFraction < 0 || c.Latency.BlackFraction > 1 {
		return fmt.Errorf("latency black_fraction must be within 0-1, got %g", c.Latency.BlackFraction)
	}
	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.Baud == 0 {
		c.Serial.Baud = def.Serial.Baud
	}

	if c.Latency.Duration == 0 {
		c.Latency.Duration = def.Latency.Duration
	}
	if c.Latency.WhiteFraction == 0 {
		c.Latency.WhiteFraction = def.Latency.WhiteFraction
	}
	if c.Latency.BlackFraction == 0 {
		c.Latency.BlackFraction = def.Latency.BlackFraction
	}
	if c.Latency.MinContrast == 0 {
		c.Latency.MinContrast = def.Latency.MinContrast
	}

	if c.Display.WindowSeconds == 0 {
		c.Display.WindowSeconds = def.Display.WindowSeconds
	}

	if c.Mock.LightDelay == 0 {
		c.Mock.LightDelay = def.Mock.LightDelay
	}
	if c.Mock.FlashDuration == 0 {
		c.Mock.FlashDuration = def.Mock.FlashDuration
	}
	if c.Mock.Brightness == 0 {
		c.Mock.Brightness = def.Mock.Brightness
	}
}
