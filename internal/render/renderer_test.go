package render_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/gofrs/flock"

	"cleancut/internal/editplan"
	"cleancut/internal/interval"
	"cleancut/internal/logging"
	"cleancut/internal/render"
	"cleancut/internal/services"
)

type fakeTranscoder struct {
	mu       sync.Mutex
	extracts []render.ExtractRequest
	concats  []render.ConcatRequest
	extract  func(ctx context.Context, req render.ExtractRequest) error
}

func (f *fakeTranscoder) Extract(ctx context.Context, req render.ExtractRequest) error {
	f.mu.Lock()
	f.extracts = append(f.extracts, req)
	f.mu.Unlock()
	if f.extract != nil {
		if err := f.extract(ctx, req); err != nil {
			return err
		}
	}
	start := 0.0
	if req.Range != nil {
		start = req.Range.Start
	}
	return os.WriteFile(req.Destination, []byte(strings.Repeat("x", 1+int(start))), 0o644)
}

func (f *fakeTranscoder) Concat(_ context.Context, req render.ConcatRequest) error {
	f.mu.Lock()
	f.concats = append(f.concats, req)
	f.mu.Unlock()
	var joined bytes.Buffer
	for _, in := range req.Inputs {
		data, err := os.ReadFile(in)
		if err != nil {
			return err
		}
		joined.Write(data)
	}
	return os.WriteFile(req.Destination, joined.Bytes(), 0o644)
}

func (f *fakeTranscoder) sortedExtracts() []render.ExtractRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := slices.Clone(f.extracts)
	slices.SortFunc(out, func(a, b render.ExtractRequest) int {
		return strings.Compare(a.Destination, b.Destination)
	})
	return out
}

type fixture struct {
	workDir string
	source  string
	dest    string
	content []byte
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	base := t.TempDir()
	content := []byte("not really a movie, but plenty of bytes to copy\n")
	source := filepath.Join(base, "in.mkv")
	if err := os.WriteFile(source, content, 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return fixture{
		workDir: filepath.Join(base, "work"),
		source:  source,
		dest:    filepath.Join(base, "out", "clean.mkv"),
		content: content,
	}
}

func (f fixture) options() render.Options {
	return render.Options{
		Preset:            render.Preset{Name: render.PresetSource},
		SoftwarePreset:    "medium",
		CRF:               20,
		AudioCodec:        "aac",
		AudioBitrate:      "192k",
		Workers:           2,
		KeyframeTolerance: 0.5,
		WorkDir:           f.workDir,
	}
}

func assertWorkDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("read work dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected temp dir cleaned up, found %v", entries)
	}
}

func assertNoDestination(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no destination file, stat err = %v", err)
	}
}

func cutPlan() editplan.EditPlan {
	return editplan.EditPlan{
		OriginalDuration: 60,
		KeepSegments:     []interval.Interval{interval.MustNew(0, 10), interval.MustNew(15, 60)},
		CutIntervals:     []interval.Interval{interval.MustNew(10, 15)},
		AudioEdits:       []editplan.AudioEdit{{Start: 20, End: 21, Type: editplan.EditBeep}},
	}
}

func TestRenderNoopPlanIsByteIdentical(t *testing.T) {
	fx := newFixture(t)
	tx := &fakeTranscoder{}
	r := render.New(fx.options(), tx, logging.NewNop())

	plan, err := editplan.Plan(editplan.Inputs{Duration: 60}, editplan.DefaultOptions())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	result, err := r.Render(context.Background(), plan, fx.source, fx.dest)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	got, err := os.ReadFile(fx.dest)
	if err != nil {
		t.Fatalf("read destination: %v", err)
	}
	if !bytes.Equal(got, fx.content) {
		t.Fatal("destination differs from source")
	}
	if len(tx.extracts) != 0 || len(tx.concats) != 0 {
		t.Fatalf("expected zero transcoder calls, got %d extracts %d concats", len(tx.extracts), len(tx.concats))
	}
	if result.Strategy != render.StrategyCopy || len(result.Segments) != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	assertWorkDirEmpty(t, fx.workDir)
	if _, err := os.Stat(fx.dest + ".lock"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected lock file removed, stat err = %v", err)
	}
}

func TestRenderAudioEditsWithoutCuts(t *testing.T) {
	fx := newFixture(t)
	tx := &fakeTranscoder{}
	r := render.New(fx.options(), tx, logging.NewNop())

	plan := editplan.EditPlan{
		OriginalDuration: 60,
		KeepSegments:     []interval.Interval{interval.MustNew(0, 60)},
		AudioEdits:       []editplan.AudioEdit{{Start: 1, End: 2, Type: editplan.EditMute}},
	}
	result, err := r.Render(context.Background(), plan, fx.source, fx.dest)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if result.Strategy != render.StrategyAudioOnly {
		t.Fatalf("expected audio-only strategy, got %s", result.Strategy)
	}
	if len(tx.extracts) != 1 || len(tx.concats) != 0 {
		t.Fatalf("expected a single extraction, got %d/%d", len(tx.extracts), len(tx.concats))
	}
	req := tx.extracts[0]
	if req.Range != nil || !req.Video.Copy || req.Audio.Copy {
		t.Fatalf("unexpected request %+v", req)
	}
	if !strings.Contains(req.Audio.Filter, "between(t,1.000,2.000)") {
		t.Fatalf("unexpected audio filter %q", req.Audio.Filter)
	}
}

func TestRenderSegmentsAndConcat(t *testing.T) {
	fx := newFixture(t)
	tx := &fakeTranscoder{}
	r := render.New(fx.options(), tx, logging.NewNop())

	result, err := r.Render(context.Background(), cutPlan(), fx.source, fx.dest)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	extracts := tx.sortedExtracts()
	if len(extracts) != 2 || len(tx.concats) != 1 {
		t.Fatalf("expected 2 extracts and 1 concat, got %d/%d", len(extracts), len(tx.concats))
	}
	first, second := extracts[0], extracts[1]
	if first.Range == nil || first.Range.Start != 0 || first.Range.Duration != 10 {
		t.Fatalf("unexpected first range %+v", first.Range)
	}
	if second.Range == nil || second.Range.Start != 15 || second.Range.Duration != 45 {
		t.Fatalf("unexpected second range %+v", second.Range)
	}
	if !strings.Contains(second.Audio.Filter, "between(t,5.000,6.000)") {
		t.Fatalf("expected segment-local edit, got %q", second.Audio.Filter)
	}
	if first.Audio.Copy || first.Audio.Filter != "anull" {
		t.Fatalf("expected untouched segment to re-encode audio for a uniform join, got %+v", first.Audio)
	}
	if !first.Video.Copy || !second.Video.Copy {
		t.Fatal("video should be stream-copied")
	}

	concat := tx.concats[0]
	if !slices.Equal(concat.Inputs, []string{first.Destination, second.Destination}) {
		t.Fatalf("concat inputs out of order: %v", concat.Inputs)
	}
	if result.Strategy != render.StrategyAudioOnly || len(result.Segments) != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	if _, err := os.Stat(fx.dest); err != nil {
		t.Fatalf("destination missing: %v", err)
	}
	assertWorkDirEmpty(t, fx.workDir)
}

func TestRenderCopySegmentsStayCopies(t *testing.T) {
	fx := newFixture(t)
	tx := &fakeTranscoder{}
	r := render.New(fx.options(), tx, logging.NewNop())

	plan := cutPlan()
	plan.AudioEdits = nil
	result, err := r.Render(context.Background(), plan, fx.source, fx.dest)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, req := range tx.extracts {
		if !req.Video.Copy || !req.Audio.Copy {
			t.Fatalf("expected pure stream copy, got %+v", req)
		}
	}
	if result.Strategy != render.StrategyCopy {
		t.Fatalf("unexpected strategy %s", result.Strategy)
	}
}

func TestRenderRequalityUsesPreset(t *testing.T) {
	fx := newFixture(t)
	opts := fx.options()
	preset, err := render.LookupPreset("1080p_high")
	if err != nil {
		t.Fatal(err)
	}
	opts.Preset = preset
	tx := &fakeTranscoder{}
	r := render.New(opts, tx, logging.NewNop())

	result, err := r.Render(context.Background(), editplan.EditPlan{OriginalDuration: 60}, fx.source, fx.dest)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if result.Strategy != render.StrategyFullReencode || result.Encoder != render.SoftwareEncoderName {
		t.Fatalf("unexpected result %+v", result)
	}
	req := tx.extracts[0]
	if req.Video.Copy || req.Video.Filter != "scale=-2:1080" || !slices.Contains(req.Video.BitrateArgs, "20000k") {
		t.Fatalf("unexpected video mode %+v", req.Video)
	}
}

func TestRenderForceCopySkipsRequality(t *testing.T) {
	fx := newFixture(t)
	opts := fx.options()
	opts.Preset, _ = render.LookupPreset("720p_high")
	opts.ForceCopy = true
	tx := &fakeTranscoder{}
	r := render.New(opts, tx, logging.NewNop())

	result, err := r.Render(context.Background(), editplan.EditPlan{OriginalDuration: 60}, fx.source, fx.dest)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if result.Strategy != render.StrategyCopy || len(tx.extracts) != 0 {
		t.Fatalf("expected byte copy, got %+v with %d extracts", result, len(tx.extracts))
	}
}

func TestRenderHardwareEncoder(t *testing.T) {
	fx := newFixture(t)
	opts := fx.options()
	opts.HardwareAccel = true
	tx := &fakeTranscoder{}
	r := render.New(opts, tx, logging.NewNop())
	r.WithEncoderDetector(func(context.Context, string) (string, bool) { return "h264_nvenc", true })

	result, err := r.Render(context.Background(), editplan.EditPlan{OriginalDuration: 60}, fx.source, fx.dest)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if result.Encoder != "h264_nvenc" || !tx.extracts[0].Video.Encoder.Hardware {
		t.Fatalf("expected hardware encoder, got %+v", result)
	}
}

func TestRenderKeyframeAlignment(t *testing.T) {
	fx := newFixture(t)
	opts := fx.options()
	opts.AlignKeyframes = true
	opts.KeyframeTolerance = 2
	tx := &fakeTranscoder{}
	r := render.New(opts, tx, logging.NewNop())
	r.WithKeyframeProbe(func(context.Context, string, string) ([]float64, error) {
		return []float64{0, 16, 40}, nil
	})

	result, err := r.Render(context.Background(), cutPlan(), fx.source, fx.dest)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if result.Segments[0].Aligned || !result.Segments[1].Aligned || result.Segments[1].Start != 16 {
		t.Fatalf("unexpected alignment %+v", result.Segments)
	}
	second := tx.sortedExtracts()[1]
	if second.Range.Start != 16 || second.Range.Duration != 44 {
		t.Fatalf("unexpected aligned range %+v", second.Range)
	}
	if !strings.Contains(second.Audio.Filter, "between(t,4.000,5.000)") {
		t.Fatalf("edits not re-localised after alignment: %q", second.Audio.Filter)
	}
}

func TestRenderKeyframeAlignmentPromotesAllSegments(t *testing.T) {
	fx := newFixture(t)
	opts := fx.options()
	opts.AlignKeyframes = true
	opts.KeyframeTolerance = 0.5
	tx := &fakeTranscoder{}
	r := render.New(opts, tx, logging.NewNop())
	r.WithKeyframeProbe(func(context.Context, string, string) ([]float64, error) {
		return []float64{0.3, 40}, nil
	})

	result, err := r.Render(context.Background(), cutPlan(), fx.source, fx.dest)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, seg := range result.Segments {
		if seg.Strategy != render.StrategyFullReencode {
			t.Fatalf("segment %d: concat inputs must share one video encoding, got %s", seg.Index, seg.Strategy)
		}
		if seg.Aligned {
			t.Fatalf("segment %d: re-encoded segment should keep its planned start", seg.Index)
		}
	}
	if result.Segments[0].Start != 0 {
		t.Fatalf("first segment start = %v, want 0", result.Segments[0].Start)
	}
	for i, req := range tx.sortedExtracts() {
		if req.Video.Copy || req.Video.Encoder.Name == "" {
			t.Fatalf("extract %d still copies video: %+v", i, req.Video)
		}
		if req.Video.Filter != "" {
			t.Fatalf("extract %d scaled a source-quality render: %q", i, req.Video.Filter)
		}
	}
	if first := tx.sortedExtracts()[0]; first.Range.Start != 0 || first.Range.Duration != 10 {
		t.Fatalf("restored segment should extract [0,10], got %+v", first.Range)
	}
}

func TestRenderFailureLeavesNoOutput(t *testing.T) {
	fx := newFixture(t)
	tx := &fakeTranscoder{
		extract: func(_ context.Context, req render.ExtractRequest) error {
			if req.Range != nil && req.Range.Start == 15 {
				return &render.ToolError{Tool: "ffmpeg", Operation: "extract", Stderr: "Conversion failed!", Err: errors.New("exit status 1")}
			}
			return nil
		},
	}
	r := render.New(fx.options(), tx, logging.NewNop())

	_, err := r.Render(context.Background(), cutPlan(), fx.source, fx.dest)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Conversion failed!") {
		t.Fatalf("expected diagnostics preserved, got %v", err)
	}
	if len(tx.concats) != 0 {
		t.Fatal("concat must not run after a failed extraction")
	}
	assertNoDestination(t, fx.dest)
	assertWorkDirEmpty(t, fx.workDir)
}

func TestRenderCancellationCleansUp(t *testing.T) {
	fx := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	var once sync.Once
	tx := &fakeTranscoder{
		extract: func(ctx context.Context, _ render.ExtractRequest) error {
			once.Do(func() { close(started) })
			<-ctx.Done()
			return ctx.Err()
		},
	}
	r := render.New(fx.options(), tx, logging.NewNop())

	go func() {
		<-started
		cancel()
	}()
	_, err := r.Render(ctx, cutPlan(), fx.source, fx.dest)
	if !errors.Is(err, services.ErrCanceled) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	assertNoDestination(t, fx.dest)
	assertWorkDirEmpty(t, fx.workDir)
}

func TestRenderRejectsLockedDestination(t *testing.T) {
	fx := newFixture(t)
	if err := os.MkdirAll(filepath.Dir(fx.dest), 0o755); err != nil {
		t.Fatal(err)
	}
	held := flock.New(fx.dest + ".lock")
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock = (%v, %v)", ok, err)
	}
	defer held.Unlock()

	r := render.New(fx.options(), &fakeTranscoder{}, logging.NewNop())
	_, err = r.Render(context.Background(), cutPlan(), fx.source, fx.dest)
	if !errors.Is(err, services.ErrResource) {
		t.Fatalf("expected resource error, got %v", err)
	}
	assertNoDestination(t, fx.dest)
}

func TestRenderRejectsBadPaths(t *testing.T) {
	fx := newFixture(t)
	r := render.New(fx.options(), &fakeTranscoder{}, logging.NewNop())

	if _, err := r.Render(context.Background(), cutPlan(), filepath.Join(t.TempDir(), "missing.mkv"), fx.dest); !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected invalid input for missing source, got %v", err)
	}
	if _, err := r.Render(context.Background(), cutPlan(), fx.source, fx.source); !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected invalid input for in-place render, got %v", err)
	}
}

func TestRenderWithStubFFmpeg(t *testing.T) {
	fx := newFixture(t)
	stub := filepath.Join(t.TempDir(), "ffmpeg")
	script := "#!/bin/sh\nfor last; do :; done\nprintf 'rendered\\n' > \"$last\"\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	opts := fx.options()
	opts.FFmpegBinary = stub
	r := render.New(opts, nil, logging.NewNop())

	if _, err := r.Render(context.Background(), cutPlan(), fx.source, fx.dest); err != nil {
		t.Fatalf("Render: %v", err)
	}
	data, err := os.ReadFile(fx.dest)
	if err != nil || string(data) != "rendered\n" {
		t.Fatalf("unexpected destination content %q (err %v)", data, err)
	}
	assertWorkDirEmpty(t, fx.workDir)
}
