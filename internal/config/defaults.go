package config

const (
	defaultWorkDir            = "~/.local/share/cleancut/work"
	defaultLogDir             = "~/.local/share/cleancut/logs"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultHistoryFile        = "history.db"
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultQuality            = "source"
	defaultSoftwarePreset     = "medium"
	defaultCRF                = 20
	defaultAudioCodec         = "aac"
	defaultAudioBitrate       = "192k"
	defaultRenderWorkers      = 2
	defaultKeyframeTolerance  = 0.5
	defaultCensorMode         = "beep"
	defaultProfanityGap       = 0.5
	defaultNudityGap          = 2.0
	defaultMinSegmentDuration = 0.5
	defaultMinCutDuration     = 0.3
	defaultAggregation        = "max"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			LogDir:  defaultLogDir,
		},
		Planner: Planner{
			ProfanityGap:       defaultProfanityGap,
			NudityGap:          defaultNudityGap,
			CensorMode:         defaultCensorMode,
			MinSegmentDuration: defaultMinSegmentDuration,
			MinCutDuration:     defaultMinCutDuration,
		},
		Confidence: Confidence{
			ProfanityWeight:       1.0,
			NudityWeight:          1.0,
			SexualContentWeight:   0.8,
			LLMContextWeight:      0.6,
			NudityFloor:           0.5,
			SexualContentFloor:    0.3,
			LLMContextFloor:       0.3,
			SingleSignalThreshold: 0.85,
			MultiSignalThreshold:  0.6,
			AgreementBoost:        0.2,
			Aggregation:           defaultAggregation,
			TimeTolerance:         1.0,
		},
		Render: Render{
			Quality:           defaultQuality,
			SoftwarePreset:    defaultSoftwarePreset,
			CRF:               defaultCRF,
			AudioCodec:        defaultAudioCodec,
			AudioBitrate:      defaultAudioBitrate,
			Workers:           defaultRenderWorkers,
			KeyframeTolerance: defaultKeyframeTolerance,
			FFmpegBinary:      defaultFFmpegBinary,
			FFprobeBinary:     defaultFFprobeBinary,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
