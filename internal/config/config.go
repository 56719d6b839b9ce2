// Package config loads the driver's external-interface settings (spec
// §6): the transceiver region, polling cadence, and pairing timeout a
// deployment may override.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Region names the RF band the dongle tunes to (§4.2, §6).
type Region string

const (
	RegionUS Region = "us"
	RegionEU Region = "eu"
)

// DriverConfig is the base configuration object (§6 external
// interfaces table).
type DriverConfig struct {
	TransceiverFrequency Region `yaml:"transceiver_frequency,omitempty"`
	PollingInterval      int    `yaml:"polling_interval,omitempty"` // seconds
	CommInterval         [2]int `yaml:"comm_interval,omitempty"`    // milliseconds: [initial, subsequent]
	Model                string `yaml:"model,omitempty"`
	PairingTimeout        int    `yaml:"pairing_timeout,omitempty"` // seconds
	MaxTries              int    `yaml:"max_tries,omitempty"`
}

// defaults per §6.
const (
	defaultPollingInterval = 30
	defaultCommIntervalMs0 = 380
	defaultCommIntervalMs1 = 200
	defaultModel           = "LaCrosse WS28xx"
	defaultPairingTimeout  = 90
	defaultMaxTries        = 3
)

// NewDriverConfig creates a new DriverConfig object from the given
// filename, filling in documented defaults for anything the file
// omits.
func NewDriverConfig(filename string) (DriverConfig, error) {
	cfgFile, err := os.ReadFile(filename)
	if err != nil {
		return DriverConfig{}, fmt.Errorf("read config %s: %w", filename, err)
	}
	c := DriverConfig{}
	if err := yaml.Unmarshal(cfgFile, &c); err != nil {
		return DriverConfig{}, fmt.Errorf("parse config %s: %w", filename, err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return DriverConfig{}, err
	}
	return c, nil
}

func (c *DriverConfig) applyDefaults() {
	if c.TransceiverFrequency == "" {
		c.TransceiverFrequency = RegionUS
	}
	if c.PollingInterval == 0 {
		c.PollingInterval = defaultPollingInterval
	}
	if c.CommInterval[0] == 0 {
		c.CommInterval[0] = defaultCommIntervalMs0
	}
	if c.CommInterval[1] == 0 {
		c.CommInterval[1] = defaultCommIntervalMs1
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.PairingTimeout == 0 {
		c.PairingTimeout = defaultPairingTimeout
	}
	if c.MaxTries == 0 {
		c.MaxTries = defaultMaxTries
	}
}

// Validate rejects settings the driver cannot act on.
func (c DriverConfig) Validate() error {
	switch c.TransceiverFrequency {
	case RegionUS, RegionEU:
	default:
		return fmt.Errorf("transceiver_frequency must be %q or %q, got %q", RegionUS, RegionEU, c.TransceiverFrequency)
	}
	if c.PollingInterval <= 0 {
		return fmt.Errorf("polling_interval must be positive, got %d", c.PollingInterval)
	}
	if c.MaxTries <= 0 {
		return fmt.Errorf("max_tries must be positive, got %d", c.MaxTries)
	}
	return nil
}

// PollingIntervalDuration converts PollingInterval to a time.Duration.
func (c DriverConfig) PollingIntervalDuration() time.Duration {
	return time.Duration(c.PollingInterval) * time.Second
}

// PairingTimeoutDuration converts PairingTimeout to a time.Duration.
func (c DriverConfig) PairingTimeoutDuration() time.Duration {
	return time.Duration(c.PairingTimeout) * time.Second
}

// CommIntervalDurations converts CommInterval to the pair of
// time.Duration values the service loop sleeps between reads.
func (c DriverConfig) CommIntervalDurations() (initial, subsequent time.Duration) {
	return time.Duration(c.CommInterval[0]) * time.Millisecond, time.Duration(c.CommInterval[1]) * time.Millisecond
}
