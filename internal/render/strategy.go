package render

// Strategy is the rendering path for one unit of work.
type Strategy int

const (
	// StrategyCopy duplicates the input without invoking a transcoder.
	StrategyCopy Strategy = iota
	// StrategyAudioOnly stream-copies video and re-encodes filtered audio.
	StrategyAudioOnly
	// StrategyFullReencode re-encodes video and audio.
	StrategyFullReencode
)

func (s Strategy) String() string {
	switch s {
	case StrategyCopy:
		return "copy"
	case StrategyAudioOnly:
		return "audio_only"
	case StrategyFullReencode:
		return "full_reencode"
	default:
		return "unknown"
	}
}

// Decision holds the facts ChooseStrategy needs about one unit of work.
type Decision struct {
	HasCuts        bool
	HasAudioEdits  bool
	NeedsRequality bool
	ForceCopy      bool
}

// ChooseStrategy picks the cheapest strategy for d. ForceCopy only suppresses
// requality; audio edits still require an audio re-encode. Cuts are handled
// by segmentation and never change the per-unit choice.
func ChooseStrategy(d Decision) Strategy {
	switch {
	case d.NeedsRequality && !d.ForceCopy:
		return StrategyFullReencode
	case d.HasAudioEdits:
		return StrategyAudioOnly
	default:
		return StrategyCopy
	}
}

// reencodesVideo reports whether the strategy runs a video encoder.
func (s Strategy) reencodesVideo() bool {
	return s == StrategyFullReencode
}
