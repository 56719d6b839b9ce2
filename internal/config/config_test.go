package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "ws28xx.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestNewDriverConfigAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, "transceiver_frequency: eu\n")

	c, err := NewDriverConfig(path)
	if err != nil {
		t.Fatalf("NewDriverConfig: %v", err)
	}
	if c.TransceiverFrequency != RegionEU {
		t.Errorf("TransceiverFrequency = %v, want %v", c.TransceiverFrequency, RegionEU)
	}
	if c.PollingInterval != defaultPollingInterval {
		t.Errorf("PollingInterval = %d, want %d", c.PollingInterval, defaultPollingInterval)
	}
	if c.CommInterval != [2]int{defaultCommIntervalMs0, defaultCommIntervalMs1} {
		t.Errorf("CommInterval = %v, want [%d %d]", c.CommInterval, defaultCommIntervalMs0, defaultCommIntervalMs1)
	}
	if c.Model != defaultModel {
		t.Errorf("Model = %q, want %q", c.Model, defaultModel)
	}
	if c.MaxTries != defaultMaxTries {
		t.Errorf("MaxTries = %d, want %d", c.MaxTries, defaultMaxTries)
	}
}

func TestNewDriverConfigHonorsOverrides(t *testing.T) {
	path := writeTempConfig(t, `
transceiver_frequency: us
polling_interval: 15
comm_interval: [500, 250]
model: "Custom WS"
pairing_timeout: 30
max_tries: 5
`)

	c, err := NewDriverConfig(path)
	if err != nil {
		t.Fatalf("NewDriverConfig: %v", err)
	}
	if c.PollingInterval != 15 {
		t.Errorf("PollingInterval = %d, want 15", c.PollingInterval)
	}
	if c.CommInterval != [2]int{500, 250} {
		t.Errorf("CommInterval = %v, want [500 250]", c.CommInterval)
	}
	if c.Model != "Custom WS" {
		t.Errorf("Model = %q, want Custom WS", c.Model)
	}
	if c.PairingTimeout != 30 {
		t.Errorf("PairingTimeout = %d, want 30", c.PairingTimeout)
	}
	if c.MaxTries != 5 {
		t.Errorf("MaxTries = %d, want 5", c.MaxTries)
	}
}

func TestNewDriverConfigRejectsBadRegion(t *testing.T) {
	path := writeTempConfig(t, "transceiver_frequency: mars\n")

	if _, err := NewDriverConfig(path); err == nil {
		t.Fatal("NewDriverConfig: want error for invalid transceiver_frequency, got nil")
	}
}

func TestNewDriverConfigMissingFile(t *testing.T) {
	if _, err := NewDriverConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("NewDriverConfig: want error for missing file, got nil")
	}
}
