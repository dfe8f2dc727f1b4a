// Package nvsettings is the configuration layer of spec.md §4.5: a
// defaults struct, a `$n=v` line-edit protocol, and CRC-guarded
// persistence through hal.NVS, grounded on
// original_source/settings.c.
package nvsettings

import (
	"errors"
	"math"

	"github.com/csdexter/grbl/hal"
	"github.com/csdexter/grbl/internal/numeric"
)

// signature marks the record as ours; a mismatch (virgin NVS, or a
// foreign record) falls back to defaults rather than trusting garbage.
const signature = 0x9761

// ErrSignatureMismatch is returned by Load when the stored record
// doesn't carry the expected signature.
var ErrSignatureMismatch = errors.New("nvsettings: signature mismatch")

// ErrCRCMismatch is returned by Load when the stored record fails its
// checksum.
var ErrCRCMismatch = errors.New("nvsettings: crc mismatch")

// ErrUnknownParameter is returned by Edit for a $n outside the known
// range.
var ErrUnknownParameter = errors.New("nvsettings: unknown parameter")

// ErrBadValue is returned by Edit when a value fails a parameter's
// range check (e.g. a non-positive steps/mm).
var ErrBadValue = errors.New("nvsettings: value out of range")

// Settings is the persisted configuration record. Field order defines
// wire layout; Load accepts only a record of exactly this layout's
// size, so adding, removing or reordering a field makes every stored
// record fall back to defaults.
type Settings struct {
	StepsPerMM        [3]float32
	PulseMicroseconds uint32
	DefaultSeekRate   float32
	MMPerArcSegment   float32
	InvertMask        uint16
	Acceleration      float32 // mm/min^2
	JunctionDeviation float32 // mm

	// Homing cycle parameters, supplemented from limits.c (dropped by
	// the spec's distillation, not excluded by its Non-goals).
	HomingEnable     bool
	HomingDirMask    uint8
	HomingFeed       float32
	HomingSeek       float32
	HomingDebounceMs uint32
	HomingPulloffMM  float32

	// StatusReportMask is persisted with the record; console.StatusReport
	// does not read it and always emits both machine and work position.
	StatusReportMask uint8
}

// Default returns the factory settings, scaled for a benchtop 3-axis
// mill, matching original_source/settings.h's DEFAULT_SETTINGS.
func Default() Settings {
	return Settings{
		StepsPerMM:        [3]float32{250, 250, 250},
		PulseMicroseconds: 10,
		DefaultSeekRate:   480,
		MMPerArcSegment:   0.1,
		InvertMask:        0,
		Acceleration:      10 * 60 * 60,
		JunctionDeviation: 0.02,

		HomingEnable:     false,
		HomingDirMask:    0,
		HomingFeed:       25,
		HomingSeek:       500,
		HomingDebounceMs: 250,
		HomingPulloffMM:  1,

		StatusReportMask: 1,
	}
}

// param describes one editable $n slot: how to read it out for Dump
// and how to validate and apply a new value for Edit.
type param struct {
	index int
	name  string
	get   func(*Settings) float32
	set   func(*Settings, float32) error
}

func params() []param {
	return []param{
		{0, "steps/mm x", func(s *Settings) float32 { return s.StepsPerMM[0] }, setStepsPerMM(0)},
		{1, "steps/mm y", func(s *Settings) float32 { return s.StepsPerMM[1] }, setStepsPerMM(1)},
		{2, "steps/mm z", func(s *Settings) float32 { return s.StepsPerMM[2] }, setStepsPerMM(2)},
		{3, "step pulse, microseconds", func(s *Settings) float32 { return float32(s.PulseMicroseconds) },
			func(s *Settings, v float32) error {
				if v < 3 {
					return ErrBadValue
				}
				s.PulseMicroseconds = uint32(math.Round(float64(v)))
				return nil
			}},
		{4, "default seek rate, mm/min", func(s *Settings) float32 { return s.DefaultSeekRate },
			func(s *Settings, v float32) error { s.DefaultSeekRate = v; return nil }},
		{5, "mm/arc segment", func(s *Settings) float32 { return s.MMPerArcSegment },
			func(s *Settings, v float32) error { s.MMPerArcSegment = v; return nil }},
		{6, "invert mask", func(s *Settings) float32 { return float32(s.InvertMask) },
			func(s *Settings, v float32) error { s.InvertMask = uint16(v); return nil }},
		{7, "acceleration, mm/sec^2", func(s *Settings) float32 { return s.Acceleration / 3600 },
			func(s *Settings, v float32) error { s.Acceleration = v * 3600; return nil }},
		{8, "junction deviation, mm", func(s *Settings) float32 { return s.JunctionDeviation },
			func(s *Settings, v float32) error { s.JunctionDeviation = numeric.Constrain(v, 0, 10); return nil }},
		{9, "homing enable", func(s *Settings) float32 { return boolf(s.HomingEnable) },
			func(s *Settings, v float32) error { s.HomingEnable = v != 0; return nil }},
		{10, "homing direction mask", func(s *Settings) float32 { return float32(s.HomingDirMask) },
			func(s *Settings, v float32) error { s.HomingDirMask = uint8(v); return nil }},
		{11, "homing feed, mm/min", func(s *Settings) float32 { return s.HomingFeed },
			func(s *Settings, v float32) error { s.HomingFeed = v; return nil }},
		{12, "homing seek, mm/min", func(s *Settings) float32 { return s.HomingSeek },
			func(s *Settings, v float32) error { s.HomingSeek = v; return nil }},
		{13, "homing debounce, ms", func(s *Settings) float32 { return float32(s.HomingDebounceMs) },
			func(s *Settings, v float32) error { s.HomingDebounceMs = uint32(v); return nil }},
		{14, "homing pull-off, mm", func(s *Settings) float32 { return s.HomingPulloffMM },
			func(s *Settings, v float32) error { s.HomingPulloffMM = v; return nil }},
		{15, "status report mask", func(s *Settings) float32 { return float32(s.StatusReportMask) },
			func(s *Settings, v float32) error { s.StatusReportMask = uint8(v); return nil }},
	}
}

func boolf(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

func setStepsPerMM(axis int) func(*Settings, float32) error {
	return func(s *Settings, v float32) error {
		if v <= 0 {
			return ErrBadValue
		}
		s.StepsPerMM[axis] = v
		return nil
	}
}

// Edit applies a single `$index=value` line, matching
// settings_store_setting's dispatch.
func (s *Settings) Edit(index int, value float32) error {
	for _, p := range params() {
		if p.index == index {
			return p.set(s, value)
		}
	}
	return ErrUnknownParameter
}

// Dump returns the human-readable "$n = value (description)" lines
// settings_dump prints, one per parameter.
func (s *Settings) Dump() []string {
	var lines []string
	for _, p := range params() {
		lines = append(lines, formatParam(p.index, p.get(s), p.name))
	}
	return lines
}

// Store persists the record to nvs, framed with the signature and the
// iButton-variant CRC-8 (polynomial 0x8C, reflected).
func (s *Settings) Store(nvs hal.NVS) error {
	buf := encode(s)
	framed := make([]byte, 2+len(buf)+1)
	framed[0] = byte(signature >> 8)
	framed[1] = byte(signature)
	copy(framed[2:], buf)
	framed[len(framed)-1] = crc8(buf)
	return nvs.Store(0, framed)
}

// Load reads the record back from nvs, validating signature and CRC.
// On any mismatch it returns defaults-and-error: callers that want
// original_source/settings.c's "warn and reset to defaults" recovery
// behavior use the returned Settings regardless of the error.
func Load(nvs hal.NVS) (Settings, error) {
	size := encodedSize()
	framed := make([]byte, 2+size+1)
	if err := nvs.Fetch(0, framed); err != nil {
		return Default(), err
	}
	if uint16(framed[0])<<8|uint16(framed[1]) != signature {
		return Default(), ErrSignatureMismatch
	}
	body := framed[2 : 2+size]
	if crc8(body) != framed[len(framed)-1] {
		return Default(), ErrCRCMismatch
	}
	return decode(body), nil
}
