package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"cleancut/internal/editplan"
	"cleancut/internal/fileutil"
	"cleancut/internal/interval"
	"cleancut/internal/keyframe"
	"cleancut/internal/logging"
	"cleancut/internal/services"
)

// Options configure a Renderer.
type Options struct {
	Preset         Preset
	ForceCopy      bool
	HardwareAccel  bool
	SoftwarePreset string
	CRF            int
	AudioCodec     string
	AudioBitrate   string
	// Workers bounds parallel segment extraction.
	Workers           int
	AlignKeyframes    bool
	KeyframeTolerance float64
	WorkDir           string
	FFmpegBinary      string
	FFprobeBinary     string
}

// KeyframeProbe lists keyframe timestamps of a media file.
type KeyframeProbe func(ctx context.Context, ffprobeBinary, path string) ([]float64, error)

// Renderer executes edit plans.
type Renderer struct {
	opts      Options
	tx        Transcoder
	logger    *slog.Logger
	probe     KeyframeProbe
	detectHW  EncoderDetector
	encoderMu sync.Mutex
	encoder   *Encoder
}

// SegmentResult describes how one keep segment was produced.
type SegmentResult struct {
	Index    int
	Start    float64
	End      float64
	Strategy Strategy
	Edits    int
	// Aligned is set when the start moved onto a keyframe.
	Aligned bool
}

// Result summarises a finished render.
type Result struct {
	Destination string
	// Strategy is the most expensive strategy used by any unit.
	Strategy Strategy
	Segments []SegmentResult
	Encoder  string
	Elapsed  time.Duration
}

// New constructs a Renderer. A nil transcoder uses ffmpeg from opts.
func New(opts Options, tx Transcoder, logger *slog.Logger) *Renderer {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.AudioCodec == "" {
		opts.AudioCodec = "aac"
	}
	if opts.Preset.Name == "" {
		opts.Preset = Preset{Name: PresetSource}
	}
	if tx == nil {
		tx = NewFFmpeg(opts.FFmpegBinary, logger)
	}
	r := &Renderer{
		opts:   opts,
		tx:     tx,
		logger: logging.NewComponentLogger(logger, "render"),
		probe:  keyframe.Probe,
	}
	r.detectHW = func(ctx context.Context, binary string) (string, bool) {
		return DetectHardwareEncoder(ctx, binary, r.logger)
	}
	return r
}

// WithKeyframeProbe replaces keyframe probing, for tests.
func (r *Renderer) WithKeyframeProbe(p KeyframeProbe) {
	if r != nil && p != nil {
		r.probe = p
	}
}

// WithEncoderDetector replaces hardware encoder detection, for tests.
func (r *Renderer) WithEncoderDetector(d EncoderDetector) {
	if r != nil && d != nil {
		r.detectHW = d
	}
}

// unit is one extraction: the whole asset or a keep segment.
type unit struct {
	index    int
	seg      interval.Interval
	edits    []editplan.AudioEdit
	strategy Strategy
	aligned  bool
}

// Render writes the edited asset to destination. The destination is only
// touched after every step succeeded; scratch files live in a temp directory
// under the work dir that is removed on every exit path.
func (r *Renderer) Render(ctx context.Context, plan editplan.EditPlan, source, destination string) (Result, error) {
	started := time.Now()
	if err := fileutil.RequireNonEmpty(source); err != nil {
		return Result{}, services.Wrap(services.ErrInvalidInput, "render", "source", source, err)
	}
	if strings.TrimSpace(destination) == "" {
		return Result{}, services.Wrap(services.ErrInvalidInput, "render", "destination", "empty path", nil)
	}
	if same, _ := samePath(source, destination); same {
		return Result{}, services.Wrap(services.ErrInvalidInput, "render", "destination", "destination must differ from source", nil)
	}

	unlock, err := lockDestination(destination)
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	if err := os.MkdirAll(r.opts.WorkDir, 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrResource, "render", "work dir", r.opts.WorkDir, err)
	}
	tempDir, err := os.MkdirTemp(r.opts.WorkDir, "render-*")
	if err != nil {
		return Result{}, services.Wrap(services.ErrResource, "render", "temp dir", r.opts.WorkDir, err)
	}
	defer func() {
		if rmErr := os.RemoveAll(tempDir); rmErr != nil {
			logging.WarnWithContext(r.logger, "temp dir cleanup failed", "render_cleanup_failed",
				logging.String("path", tempDir),
				logging.Error(rmErr),
				logging.String(logging.FieldImpact, "scratch files left in the work dir"),
				logging.String(logging.FieldErrorHint, "remove the directory manually"),
			)
		}
	}()

	ext := filepath.Ext(destination)
	if ext == "" {
		ext = ".mkv"
	}
	staged := filepath.Join(tempDir, "output"+ext)
	logger := logging.WithContext(ctx, r.logger)

	var units []unit
	if plan.HasCuts() {
		units, err = r.segmentUnits(ctx, plan, source)
		if err != nil {
			return Result{}, r.classify(ctx, err)
		}
		if err := r.renderSegments(ctx, units, source, tempDir, ext, staged, logger); err != nil {
			return Result{}, r.classify(ctx, err)
		}
	} else {
		whole := unit{
			seg:   interval.Interval{Start: 0, End: plan.OriginalDuration},
			edits: plan.AudioEdits,
		}
		whole.strategy = r.choose(false, len(whole.edits) > 0)
		units = []unit{whole}
		if err := r.renderWhole(ctx, whole, source, staged, logger); err != nil {
			return Result{}, r.classify(ctx, err)
		}
	}

	if err := fileutil.Publish(ctx, staged, destination); err != nil {
		return Result{}, r.classify(ctx, services.Wrap(services.ErrResource, "render", "publish", destination, err))
	}

	result := Result{
		Destination: destination,
		Elapsed:     time.Since(started),
	}
	for _, u := range units {
		result.Segments = append(result.Segments, SegmentResult{
			Index:    u.index,
			Start:    u.seg.Start,
			End:      u.seg.End,
			Strategy: u.strategy,
			Edits:    len(u.edits),
			Aligned:  u.aligned,
		})
		result.Strategy = max(result.Strategy, u.strategy)
	}
	if result.Strategy.reencodesVideo() {
		result.Encoder = r.cachedEncoderName()
	}
	logger.Info("render complete",
		logging.String("destination", destination),
		logging.String(logging.FieldStrategy, result.Strategy.String()),
		logging.Int("segments", len(result.Segments)),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

func (r *Renderer) needsRequality() bool {
	return !r.opts.Preset.IsSource() || r.opts.HardwareAccel
}

func (r *Renderer) choose(hasCuts, hasEdits bool) Strategy {
	return ChooseStrategy(Decision{
		HasCuts:        hasCuts,
		HasAudioEdits:  hasEdits,
		NeedsRequality: r.needsRequality(),
		ForceCopy:      r.opts.ForceCopy,
	})
}

func (r *Renderer) renderWhole(ctx context.Context, u unit, source, staged string, logger *slog.Logger) error {
	logger.Info("rendering whole asset",
		logging.Args(append(logging.DecisionAttrs("render_strategy", u.strategy.String(), "no cuts in plan"),
			logging.Int("audio_edits", len(u.edits)))...)...,
	)
	if u.strategy == StrategyCopy {
		if err := fileutil.CopyFileVerified(ctx, source, staged); err != nil {
			return services.Wrap(services.ErrResource, "render", "copy", source, err)
		}
		return nil
	}
	req, err := r.extractRequest(ctx, u, source, staged, false)
	if err != nil {
		return err
	}
	return r.tx.Extract(ctx, req)
}

// segmentUnits assigns a strategy to every keep segment and aligns copy
// segments to keyframes when enabled. The concat step stream-copies, so the
// units are then made uniform: one re-encoded video stream promotes every
// unit to a full re-encode, one re-encoded audio stream moves every copy unit
// to audio_only.
func (r *Renderer) segmentUnits(ctx context.Context, plan editplan.EditPlan, source string) ([]unit, error) {
	units := make([]unit, 0, len(plan.KeepSegments))
	for i, seg := range plan.KeepSegments {
		edits := plan.SegmentEdits(seg)
		units = append(units, unit{
			index:    i,
			seg:      seg,
			edits:    edits,
			strategy: r.choose(true, len(edits) > 0),
		})
	}

	if r.opts.AlignKeyframes {
		if err := r.alignUnits(ctx, plan, source, units); err != nil {
			return nil, err
		}
	}
	r.unifyStreams(plan, units)
	return units, nil
}

func (r *Renderer) unifyStreams(plan editplan.EditPlan, units []unit) {
	target := StrategyCopy
	for _, u := range units {
		target = max(target, u.strategy)
	}
	if target == StrategyCopy {
		return
	}
	promoted := 0
	for i := range units {
		u := &units[i]
		if u.strategy >= target {
			continue
		}
		if target.reencodesVideo() && u.aligned {
			// Re-encoding is frame accurate; restore the planned start.
			u.seg = plan.KeepSegments[u.index]
			u.edits = plan.SegmentEdits(u.seg)
			u.aligned = false
		}
		u.strategy = target
		promoted++
	}
	if promoted > 0 {
		r.logger.Debug("segments unified for concat",
			logging.Args(append(logging.DecisionAttrs("concat_uniformity", target.String(), "segments must share stream parameters"),
				logging.Int("promoted", promoted),
			)...)...,
		)
	}
}

func (r *Renderer) alignUnits(ctx context.Context, plan editplan.EditPlan, source string, units []unit) error {
	keyframes, err := r.probe(ctx, r.opts.FFprobeBinary, source)
	if err != nil {
		return err
	}
	for i := range units {
		u := &units[i]
		if u.strategy.reencodesVideo() {
			continue
		}
		kf, ok := keyframe.FirstWithin(u.seg.Start, u.seg.End, keyframes)
		if ok && kf-u.seg.Start <= r.opts.KeyframeTolerance {
			if kf > u.seg.Start {
				u.seg = u.seg.WithBounds(kf, u.seg.End)
				u.edits = plan.SegmentEdits(u.seg)
				u.aligned = true
			}
			continue
		}
		r.logger.Debug("segment promoted to full re-encode",
			logging.Args(append(logging.DecisionAttrs("keyframe_alignment", "promote", "no keyframe near segment start"),
				logging.Int(logging.FieldSegment, u.index),
				logging.Seconds("start", u.seg.Start),
			)...)...,
		)
		u.strategy = StrategyFullReencode
	}
	return nil
}

func (r *Renderer) renderSegments(ctx context.Context, units []unit, source, tempDir, ext, staged string, logger *slog.Logger) error {
	parts := make([]string, len(units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, u := range units {
		parts[i] = filepath.Join(tempDir, fmt.Sprintf("segment-%04d%s", i, ext))
		g.Go(func() error {
			logger.Debug("extracting segment",
				logging.Int(logging.FieldSegment, u.index),
				logging.Span("span", u.seg.Start, u.seg.End),
				logging.String(logging.FieldStrategy, u.strategy.String()),
				logging.Int("audio_edits", len(u.edits)),
			)
			req, err := r.extractRequest(gctx, u, source, parts[i], true)
			if err != nil {
				return err
			}
			if err := r.tx.Extract(gctx, req); err != nil {
				return fmt.Errorf("segment %d: %w", u.index, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("concatenating segments", logging.Int("segments", len(parts)))
	return r.tx.Concat(ctx, ConcatRequest{
		Inputs:      parts,
		Destination: staged,
		ListPath:    filepath.Join(tempDir, "concat.txt"),
	})
}

func (r *Renderer) extractRequest(ctx context.Context, u unit, source, destination string, ranged bool) (ExtractRequest, error) {
	req := ExtractRequest{Source: source, Destination: destination}
	if ranged {
		req.Range = &Range{Start: u.seg.Start, Duration: u.seg.Duration()}
	}
	switch u.strategy {
	case StrategyCopy:
		req.Video = VideoMode{Copy: true}
		req.Audio = AudioMode{Copy: true}
		return req, nil
	case StrategyAudioOnly:
		req.Video = VideoMode{Copy: true}
	case StrategyFullReencode:
		enc := r.videoEncoder(ctx)
		req.Video = VideoMode{Encoder: enc}
		if !r.opts.ForceCopy {
			req.Video.Filter = r.opts.Preset.VideoFilter()
			req.Video.BitrateArgs = r.opts.Preset.BitrateArgs()
		}
	default:
		return req, fmt.Errorf("%w: unknown strategy %d", services.ErrPlanning, u.strategy)
	}
	req.Audio = AudioMode{
		Codec:   r.opts.AudioCodec,
		Bitrate: r.opts.AudioBitrate,
		Filter:  BuildAudioFilter(u.edits),
	}
	return req, nil
}

// videoEncoder resolves the encoder once per renderer.
func (r *Renderer) videoEncoder(ctx context.Context) Encoder {
	r.encoderMu.Lock()
	defer r.encoderMu.Unlock()
	if r.encoder != nil {
		return *r.encoder
	}
	enc := SoftwareEncoder(r.opts.SoftwarePreset, r.opts.CRF)
	if r.opts.HardwareAccel {
		if name, ok := r.detectHW(ctx, r.opts.FFmpegBinary); ok {
			enc = HardwareEncoder(name, r.opts.CRF)
		}
	}
	r.logger.Info("video encoder selected",
		logging.Args(append(logging.DecisionAttrs("video_encoder", enc.Name, encoderReason(r.opts.HardwareAccel, enc)),
			logging.Bool("hardware", enc.Hardware))...)...,
	)
	r.encoder = &enc
	return enc
}

func (r *Renderer) cachedEncoderName() string {
	r.encoderMu.Lock()
	defer r.encoderMu.Unlock()
	if r.encoder == nil {
		return ""
	}
	return r.encoder.Name
}

func encoderReason(requested bool, enc Encoder) string {
	switch {
	case !requested:
		return "hardware acceleration disabled"
	case enc.Hardware:
		return "hardware encoder verified"
	default:
		return "no usable hardware encoder"
	}
}

// classify tags failures caused by cancellation so callers can tell an
// abort from a tool failure.
func (r *Renderer) classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, services.ErrCanceled) {
		return services.Wrap(services.ErrCanceled, "render", "canceled", "", errors.Join(ctxErr, err))
	}
	return err
}

// lockDestination takes an exclusive lock on <destination>.lock so two
// renders never race for one output.
func lockDestination(destination string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return nil, services.Wrap(services.ErrResource, "render", "lock", "create destination directory", err)
	}
	lockPath := destination + ".lock"
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrResource, "render", "lock", lockPath, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrResource, "render", "lock", "another render is writing "+destination, nil)
	}
	return func() {
		_ = lock.Unlock()
		_ = os.Remove(lockPath)
	}, nil
}

func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	if absA == absB {
		return true, nil
	}
	infoA, errA := os.Stat(absA)
	infoB, errB := os.Stat(absB)
	if errA != nil || errB != nil {
		return false, nil
	}
	return os.SameFile(infoA, infoB), nil
}
