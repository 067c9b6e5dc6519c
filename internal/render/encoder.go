package render

import (
	"context"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"cleancut/internal/logging"
)

// SoftwareEncoderName is the fallback video encoder.
const SoftwareEncoderName = "libx264"

const vaapiDevice = "/dev/dri/renderD128"

// Encoder holds the ffmpeg arguments needed to drive one video encoder.
type Encoder struct {
	Name     string
	Hardware bool
	// PreInputArgs go before -i, for device initialisation.
	PreInputArgs []string
	QualityArgs  []string
	// FilterSuffix is appended to the video filter chain.
	FilterSuffix string
}

// SoftwareEncoder returns libx264 with the given speed preset and CRF.
func SoftwareEncoder(preset string, crf int) Encoder {
	if strings.TrimSpace(preset) == "" {
		preset = "medium"
	}
	return Encoder{
		Name:        SoftwareEncoderName,
		QualityArgs: []string{"-preset", preset, "-crf", strconv.Itoa(crf)},
	}
}

// hardwareCandidates lists the H.264 hardware encoders worth probing on goos,
// in preference order.
func hardwareCandidates(goos string) []string {
	switch goos {
	case "darwin":
		return []string{"h264_videotoolbox"}
	case "linux":
		return []string{"h264_nvenc", "h264_qsv", "h264_vaapi"}
	case "windows":
		return []string{"h264_nvenc", "h264_qsv", "h264_amf"}
	default:
		return nil
	}
}

// hardwareEncoder returns the arguments for a hardware encoder at a quality
// roughly equivalent to the given CRF.
func hardwareEncoder(name string, crf int) Encoder {
	q := strconv.Itoa(crf)
	enc := Encoder{Name: name, Hardware: true}
	switch {
	case strings.Contains(name, "nvenc"):
		enc.QualityArgs = []string{"-preset", "p5", "-rc", "vbr", "-cq", q}
	case strings.Contains(name, "qsv"):
		enc.PreInputArgs = []string{"-init_hw_device", "qsv=hw:" + vaapiDevice}
		enc.QualityArgs = []string{"-preset", "medium", "-global_quality", q}
	case strings.Contains(name, "vaapi"):
		enc.PreInputArgs = []string{"-init_hw_device", "vaapi=va:" + vaapiDevice, "-filter_hw_device", "va"}
		enc.QualityArgs = []string{"-qp", q}
		enc.FilterSuffix = "format=nv12,hwupload"
	case strings.Contains(name, "amf"):
		enc.QualityArgs = []string{"-quality", "balanced", "-rc", "cqp", "-qp_i", q, "-qp_p", q}
	case strings.Contains(name, "videotoolbox"):
		enc.QualityArgs = []string{"-allow_sw", "1", "-q:v", "65"}
	}
	return enc
}

// EncoderDetector returns the name of a usable hardware encoder, if any.
type EncoderDetector func(ctx context.Context, ffmpegBinary string) (string, bool)

// encoderCache remembers the hardware encoder found per ffmpeg binary.
type encoderCache struct {
	mu      sync.Mutex
	entries map[string]string
}

var detectedEncoders = &encoderCache{entries: map[string]string{}}

// DetectHardwareEncoder probes ffmpeg for a hardware H.264 encoder usable on
// this host and verifies it with a one-frame test encode. The result is
// cached per binary; an empty cache entry records that none worked.
func DetectHardwareEncoder(ctx context.Context, ffmpegBinary string, logger *slog.Logger) (string, bool) {
	return detectedEncoders.detect(ctx, ffmpegBinary, runtime.GOOS, runCommand, logging.NewComponentLogger(logger, "hwaccel"))
}

// HardwareEncoder returns the arguments for the named hardware encoder.
func HardwareEncoder(name string, crf int) Encoder {
	return hardwareEncoder(name, crf)
}

func (c *encoderCache) detect(ctx context.Context, binary, goos string, run commandRunner, logger *slog.Logger) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if name, ok := c.entries[binary]; ok {
		return name, name != ""
	}

	output, _ := run(ctx, binary, "-hide_banner", "-encoders")
	listing := string(output)
	for _, name := range hardwareCandidates(goos) {
		if !strings.Contains(listing, name) {
			continue
		}
		if err := testEncode(ctx, binary, name, run); err != nil {
			logger.Debug("hardware encoder unusable",
				logging.String("encoder", name),
				logging.Error(err),
			)
			continue
		}
		logger.Info("hardware encoder detected", logging.String("encoder", name))
		c.entries[binary] = name
		return name, true
	}
	logger.Info("no hardware encoder available, using software",
		logging.String("encoder", SoftwareEncoderName),
	)
	c.entries[binary] = ""
	return "", false
}

func testEncode(ctx context.Context, binary, name string, run commandRunner) error {
	enc := hardwareEncoder(name, 30)
	args := []string{"-hide_banner", "-v", "error"}
	args = append(args, enc.PreInputArgs...)
	args = append(args, "-f", "lavfi", "-i", "color=black:s=64x64:d=0.1:r=1", "-frames:v", "1", "-an")
	if enc.FilterSuffix != "" {
		args = append(args, "-vf", enc.FilterSuffix)
	}
	args = append(args, "-c:v", name, "-f", "null", "-")
	_, err := run(ctx, binary, args...)
	return err
}
