package render_test

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"cleancut/internal/editplan"
	"cleancut/internal/render"
	"cleancut/internal/services"
)

func TestPreset1080pHigh(t *testing.T) {
	p, err := render.LookupPreset("1080p_high")
	if err != nil {
		t.Fatalf("LookupPreset: %v", err)
	}
	if !strings.Contains(p.VideoFilter(), "1080") || p.VideoFilter() != "scale=-2:1080" {
		t.Fatalf("unexpected filter %q", p.VideoFilter())
	}
	args := p.BitrateArgs()
	idx := slices.Index(args, "-b:v")
	if idx < 0 || args[idx+1] != "20000k" {
		t.Fatalf("expected 20000k target bitrate, got %v", args)
	}
	if p.IsSource() {
		t.Fatal("1080p_high must request requality")
	}
}

func TestPresetSource(t *testing.T) {
	for _, name := range []string{"source", "", " SOURCE "} {
		p, err := render.LookupPreset(name)
		if err != nil {
			t.Fatalf("LookupPreset(%q): %v", name, err)
		}
		if !p.IsSource() || p.VideoFilter() != "" || p.BitrateArgs() != nil {
			t.Fatalf("source preset should not alter video: %+v", p)
		}
	}
}

func TestPresetUnknown(t *testing.T) {
	_, err := render.LookupPreset("8k_ultra")
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if !strings.Contains(err.Error(), "720p_medium") {
		t.Fatalf("expected known presets listed, got %v", err)
	}
}

func TestPresetNamesCoverTable(t *testing.T) {
	want := []string{"source", "480p", "720p_medium", "720p_high", "1080p_medium", "1080p_high", "2160p_high"}
	if got := render.PresetNames(); !slices.Equal(got, want) {
		t.Fatalf("PresetNames = %v", got)
	}
}

func TestBuildAudioFilter(t *testing.T) {
	if got := render.BuildAudioFilter(nil); got != "anull" {
		t.Fatalf("empty edits should pass through, got %q", got)
	}

	single := render.BuildAudioFilter([]editplan.AudioEdit{{Start: 1, End: 2, Type: editplan.EditMute}})
	if single != "volume=enable='between(t,1.000,2.000)':volume=0" {
		t.Fatalf("unexpected filter %q", single)
	}

	multi := render.BuildAudioFilter([]editplan.AudioEdit{
		{Start: 0.5, End: 0.75, Type: editplan.EditBeep},
		{Start: 3.25, End: 4, Type: editplan.EditMute},
	})
	if strings.Count(multi, "volume=0") != 2 || !strings.Contains(multi, "between(t,3.250,4.000)") {
		t.Fatalf("unexpected chain %q", multi)
	}
}
