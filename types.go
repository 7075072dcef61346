package ld2410

import (
	"fmt"

	"github.com/hilink/ld2410/internal/protocol"
)

// Parameters is the device's persisted gate and timing configuration.
type Parameters struct {
	MaxDistanceGate           uint8
	MotionMaxDistanceGate     uint8
	StandstillMaxDistanceGate uint8
	MotionSensitivity         [9]uint8
	StandstillSensitivity     [9]uint8
	NoOneIdleDuration         uint16
}

func parametersFromReply(r protocol.ParametersReadReply) Parameters {
	return Parameters{
		MaxDistanceGate:           r.MaxDistanceGate,
		MotionMaxDistanceGate:     r.MotionMaxDistanceGate,
		StandstillMaxDistanceGate: r.StandstillMaxDistanceGate,
		MotionSensitivity:         r.MotionSensitivity,
		StandstillSensitivity:     r.StandstillSensitivity,
		NoOneIdleDuration:         r.NoOneIdleDuration,
	}
}

// FirmwareVersion identifies the device's firmware build.
type FirmwareVersion struct {
	Type     uint16
	Major    uint8
	Minor    uint8
	Revision uint32
}

// String renders the version the way the device's own tooling does, e.g.
// "V2.04.23022511".
func (v FirmwareVersion) String() string {
	return fmt.Sprintf("V%d.%02d.%08x", v.Major, v.Minor, v.Revision)
}

// LightControl is the device's OUT-pin photo-sensitivity behaviour,
// available on firmware 2.4 and later. The upstream protocol calls this
// "auxiliary control"; the device documentation calls it light control.
// Both names refer to the same AuxiliaryControlSet/Get commands.
type LightControl struct {
	Control   protocol.AuxiliaryControl
	Threshold byte
	Default   protocol.OutPinLevel
}

// Report is a decoded presence report. Engineering is nil unless
// engineering mode was enabled when the report was produced.
type Report struct {
	Type        protocol.ReportType
	Basic       protocol.BasicReport
	Engineering *protocol.EngineeringReport
}
