package render

import (
	"fmt"
	"strings"

	"cleancut/internal/editplan"
)

// passthroughAudioFilter leaves audio untouched.
const passthroughAudioFilter = "anull"

// BuildAudioFilter turns segment-local audio edits into an ffmpeg filter
// chain. Mute and beep both silence the span.
// TODO: mix a sine tone over beep spans instead of silencing them.
func BuildAudioFilter(edits []editplan.AudioEdit) string {
	if len(edits) == 0 {
		return passthroughAudioFilter
	}
	stages := make([]string, 0, len(edits))
	for _, e := range edits {
		stages = append(stages, fmt.Sprintf("volume=enable='between(t,%.3f,%.3f)':volume=0", e.Start, e.End))
	}
	return strings.Join(stages, ",")
}
