package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Effect kinds understood by the explosion controller.
const (
	EffectAsteroid = "asteroid"
	EffectShip     = "ship"
	EffectExhaust  = "exhaust"
)

// EffectPreset is the tunable look of one explosion kind.
type EffectPreset struct {
	Hue          float64 `toml:"hue"`
	Saturation   float64 `toml:"saturation"`
	Value        float64 `toml:"value"`
	ValueRange   float64 `toml:"value_range"`
	Opacity      float64 `toml:"opacity"`
	OpacityDelta float64 `toml:"opacity_delta"`
	OpacityFloor float64 `toml:"opacity_floor"`
	ParticleSize float64 `toml:"particle_size"`
	Particles    int     `toml:"particles"`
	DurationMS   int     `toml:"duration_ms"`
	FrameMS      int     `toml:"frame_ms"`
}

// Duration returns how long the effect stays on screen.
func (p EffectPreset) Duration() time.Duration {
	return time.Duration(p.DurationMS) * time.Millisecond
}

// FrameDuration returns the minimum time between animation frames.
func (p EffectPreset) FrameDuration() time.Duration {
	return time.Duration(p.FrameMS) * time.Millisecond
}

// EffectPresets maps an effect kind to its preset.
type EffectPresets map[string]EffectPreset

// DefaultEffectPresets returns the built-in presets.
func DefaultEffectPresets() EffectPresets {
	return EffectPresets{
		EffectAsteroid: {
			Hue: 30, Saturation: 0.9, Value: 0.9, ValueRange: 0.6,
			Opacity: 1, OpacityDelta: 0.02, OpacityFloor: 0.3,
			ParticleSize: 0.1, Particles: 40,
			DurationMS: 900, FrameMS: 24,
		},
		EffectShip: {
			Hue: 190, Saturation: 0.8, Value: 1, ValueRange: 0.7,
			Opacity: 1, OpacityDelta: 0.015, OpacityFloor: 0.3,
			ParticleSize: 0.1, Particles: 80,
			DurationMS: 1500, FrameMS: 24,
		},
		EffectExhaust: {
			Hue: 45, Saturation: 1, Value: 0.8, ValueRange: 0.5,
			Opacity: 0.9, OpacityDelta: 0.1, OpacityFloor: 0.4,
			ParticleSize: 0.05, Particles: 6,
			DurationMS: 200, FrameMS: 24,
		},
	}
}

// LoadEffectPresets reads presets from a TOML file and merges them over the
// defaults. An empty path returns the defaults.
//
//	[asteroid]
//	hue = 20
//	particles = 60
func LoadEffectPresets(path string) (EffectPresets, error) {
	presets := DefaultEffectPresets()
	if path == "" {
		return presets, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading effect presets: %w", err)
	}
	if err := presets.Decode(data); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return presets, nil
}

// Decode merges TOML data over p. Keys absent from data keep their current
// value; unknown keys are an error.
func (p EffectPresets) Decode(data []byte) error {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return err
	}
	for kind, table := range raw {
		if _, ok := table.(map[string]any); !ok {
			return fmt.Errorf("effect %q: expected a table", kind)
		}
		sub, err := toml.Marshal(table)
		if err != nil {
			return fmt.Errorf("effect %q: %w", kind, err)
		}
		// Decoding into a copy of the current preset keeps absent keys.
		preset := p[kind]
		dec := toml.NewDecoder(bytes.NewReader(sub))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&preset); err != nil {
			return fmt.Errorf("effect %q: %w", kind, err)
		}
		p[kind] = preset
	}
	return nil
}
