package render

import (
	"fmt"
	"strings"

	"cleancut/internal/services"
)

// Preset is a named output quality. The source preset keeps the original
// resolution and leaves bitrate to the encoder's quality setting.
type Preset struct {
	Name        string
	Height      int
	BitrateKbps int
}

// PresetSource keeps the input resolution.
const PresetSource = "source"

var presets = []Preset{
	{Name: PresetSource},
	{Name: "480p", Height: 480, BitrateKbps: 2500},
	{Name: "720p_medium", Height: 720, BitrateKbps: 5000},
	{Name: "720p_high", Height: 720, BitrateKbps: 8000},
	{Name: "1080p_medium", Height: 1080, BitrateKbps: 10000},
	{Name: "1080p_high", Height: 1080, BitrateKbps: 20000},
	{Name: "2160p_high", Height: 2160, BitrateKbps: 45000},
}

// LookupPreset returns the preset registered under name.
func LookupPreset(name string) (Preset, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = PresetSource
	}
	for _, p := range presets {
		if p.Name == key {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: unknown quality preset %q (known: %s)",
		services.ErrInvalidInput, name, strings.Join(PresetNames(), ", "))
}

// PresetNames lists the registered preset names in ascending quality.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for _, p := range presets {
		names = append(names, p.Name)
	}
	return names
}

// IsSource reports whether the preset leaves resolution and bitrate alone.
func (p Preset) IsSource() bool {
	return p.Height == 0 && p.BitrateKbps == 0
}

// VideoFilter scales to the preset height keeping the aspect ratio with an
// even width. Source returns "".
func (p Preset) VideoFilter() string {
	if p.Height <= 0 {
		return ""
	}
	return fmt.Sprintf("scale=-2:%d", p.Height)
}

// BitrateArgs returns the ffmpeg rate-control flags for the preset.
func (p Preset) BitrateArgs() []string {
	if p.BitrateKbps <= 0 {
		return nil
	}
	return []string{
		"-b:v", fmt.Sprintf("%dk", p.BitrateKbps),
		"-maxrate", fmt.Sprintf("%dk", p.BitrateKbps*3/2),
		"-bufsize", fmt.Sprintf("%dk", p.BitrateKbps*2),
	}
}
