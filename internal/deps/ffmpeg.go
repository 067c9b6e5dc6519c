package deps

import "strings"

// MediaRequirements lists the binaries the renderer and keyframe prober execute.
func MediaRequirements(ffmpegBinary, ffprobeBinary string) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     ffmpegBinary,
			Description: "Segment extraction, audio filtering and concatenation",
			VersionArgs: []string{"-hide_banner", "-version"},
		},
		{
			Name:        "FFprobe",
			Command:     ffprobeBinary,
			Description: "Duration and keyframe probing",
			VersionArgs: []string{"-hide_banner", "-version"},
		},
	}
}

// parseVersionBanner extracts the version token from the first line ffmpeg and
// ffprobe print, e.g. "ffmpeg version 6.1.1-3ubuntu5 Copyright ...".
func parseVersionBanner(line string) string {
	fields := strings.Fields(line)
	for i, field := range fields {
		if field == "version" && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return strings.TrimSpace(line)
}
