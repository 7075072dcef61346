// Package config loads a YAML device profile used by the CLI tools to
// script a one-shot provisioning run against a real device.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Profile describes one device's serial settings and the configuration it
// should be provisioned with.
type Profile struct {
	Device            string                   `yaml:"device"`
	BaudRate          int                      `yaml:"baud_rate"`
	CommandTimeout    time.Duration            `yaml:"command_timeout"`
	ReportQueueSize   int                      `yaml:"report_queue_size"`
	Parameters        *ParametersConfig        `yaml:"parameters"`
	GateSensitivities []GateSensitivityConfig  `yaml:"gate_sensitivities"`
}

// ParametersConfig is the gate-range/timing portion of a Profile.
type ParametersConfig struct {
	MotionMaxGate     uint32 `yaml:"motion_max_gate"`
	StandstillMaxGate uint32 `yaml:"standstill_max_gate"`
	NoOneIdleDuration uint32 `yaml:"no_one_idle_duration"`
}

// GateSensitivityConfig is one gate's motion/standstill sensitivity
// setting. Gate may be 0xFFFFFFFF to apply to every gate at once.
type GateSensitivityConfig struct {
	Gate                  uint32 `yaml:"gate"`
	MotionSensitivity     uint32 `yaml:"motion_sensitivity"`
	StandstillSensitivity uint32 `yaml:"standstill_sensitivity"`
}

// Load reads and parses the device profile at path.
func Load(path string) (*Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	profile := defaultProfile()
	if err := yaml.Unmarshal(b, &profile); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if profile.Device == "" {
		return nil, fmt.Errorf("config: %s: device path is required", path)
	}
	return &profile, nil
}

func defaultProfile() Profile {
	return Profile{
		BaudRate:        256000,
		CommandTimeout:  2 * time.Second,
		ReportQueueSize: 64,
	}
}
