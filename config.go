package lame

import (
	"fmt"

	"github.com/Kilerd/lame/libmp3lame"
)

// Quality is the encoding effort level: 0 is best and slowest, 9 is
// fastest and lowest fidelity.
type Quality int

// Named quality levels understood by the codec.
const (
	QualityBest     Quality = 0
	QualityHigh     Quality = 2
	QualityGood     Quality = 4
	QualityStandard Quality = 5
	QualityFast     Quality = 7
	QualityFastest  Quality = 9
)

// VBRMode selects how the codec allocates bits over time.
type VBRMode int

// Supported VBR modes.
const (
	// VBROff holds the configured bitrate constant.
	VBROff VBRMode = libmp3lame.VBRModeOff
	// VBRAverage varies bits per frame around the configured bitrate.
	VBRAverage VBRMode = libmp3lame.VBRModeAverage
	// VBRDefault varies bits per frame to hold quality constant.
	VBRDefault VBRMode = libmp3lame.VBRModeDefault
)

// Sample rates and bitrates the codec accepts.
var (
	supportedSampleRates = []int{8000, 11025, 12000, 16000, 22050, 24000, 32000, 44100, 48000}
	supportedBitrates    = []int{8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 192, 224, 256, 320}
)

// An EncoderConfig is the validated, immutable parameter set a session
// was built with. Bitrate and VBRMode are both retained for inspection;
// VBRActive reports which one governs the output.
type EncoderConfig struct {
	SampleRate int
	Channels   int
	Bitrate    int
	Quality    Quality
	VBRMode    VBRMode
	VBRQuality int

	vbrAuthoritative bool
}

// VBRActive reports whether variable-bitrate mode governs the output
// rather than the fixed bitrate.
func (c EncoderConfig) VBRActive() bool {
	return c.vbrAuthoritative && c.VBRMode != VBROff
}

// An Option sets one encoder parameter. Validation is deferred to
// NewEncoder so that cross-field invariants can be checked once every
// option has been applied.
type Option func(*EncoderConfig)

// WithSampleRate sets the input sample rate in Hz. Defaults to 44100.
func WithSampleRate(rate int) Option {
	return func(c *EncoderConfig) { c.SampleRate = rate }
}

// WithChannels sets the channel count: 1 for mono, 2 for stereo.
// Defaults to 1.
func WithChannels(channels int) Option {
	return func(c *EncoderConfig) { c.Channels = channels }
}

// WithBitrate sets a fixed output bitrate in kbps and makes it
// authoritative over any previously selected VBR mode. Defaults to 128.
func WithBitrate(kbps int) Option {
	return func(c *EncoderConfig) {
		c.Bitrate = kbps
		c.vbrAuthoritative = false
	}
}

// WithQuality sets the encoding effort level. Defaults to
// QualityStandard.
func WithQuality(q Quality) Option {
	return func(c *EncoderConfig) { c.Quality = q }
}

// WithVBR selects a variable-bitrate mode and makes it authoritative
// over any previously set fixed bitrate. WithVBR(VBROff) restores
// fixed-bitrate output.
func WithVBR(mode VBRMode) Option {
	return func(c *EncoderConfig) {
		c.VBRMode = mode
		c.vbrAuthoritative = mode != VBROff
	}
}

// WithVBRQuality sets the VBR sub-quality (0 best, 9 worst). Only
// validated and applied when a VBR mode is active.
func WithVBRQuality(q int) Option {
	return func(c *EncoderConfig) { c.VBRQuality = q }
}

func defaultConfig() EncoderConfig {
	return EncoderConfig{
		SampleRate: 44100,
		Channels:   1,
		Bitrate:    128,
		Quality:    QualityStandard,
		VBRMode:    VBROff,
		VBRQuality: 4,
	}
}

func (c EncoderConfig) validate() error {
	if !containsInt(supportedSampleRates, c.SampleRate) {
		return &ConfigError{
			Field:  "sample rate",
			Value:  c.SampleRate,
			Reason: fmt.Sprintf("must be one of %v", supportedSampleRates),
		}
	}
	if c.Channels != 1 && c.Channels != 2 {
		return &ConfigError{Field: "channels", Value: c.Channels, Reason: "must be 1 (mono) or 2 (stereo)"}
	}
	if c.Quality < 0 || c.Quality > 9 {
		return &ConfigError{Field: "quality", Value: int(c.Quality), Reason: "must be in [0, 9]"}
	}
	switch c.VBRMode {
	case VBROff, VBRAverage, VBRDefault:
	default:
		return &ConfigError{Field: "vbr mode", Value: int(c.VBRMode), Reason: "unknown mode"}
	}
	if c.VBRActive() {
		if c.VBRQuality < 0 || c.VBRQuality > 9 {
			return &ConfigError{Field: "vbr quality", Value: c.VBRQuality, Reason: "must be in [0, 9]"}
		}
		if c.VBRMode == VBRAverage && !containsInt(supportedBitrates, c.Bitrate) {
			return &ConfigError{
				Field:  "bitrate",
				Value:  c.Bitrate,
				Reason: fmt.Sprintf("average-bitrate mode needs a mean bitrate from %v", supportedBitrates),
			}
		}
	} else if !containsInt(supportedBitrates, c.Bitrate) {
		return &ConfigError{
			Field:  "bitrate",
			Value:  c.Bitrate,
			Reason: fmt.Sprintf("must be one of %v kbps", supportedBitrates),
		}
	}
	return nil
}

// params translates the validated configuration into native settings.
// When the fixed bitrate is authoritative, VBR is forced off regardless
// of the retained mode value.
func (c EncoderConfig) params() libmp3lame.Params {
	mode := libmp3lame.VBRModeOff
	if c.VBRActive() {
		mode = int(c.VBRMode)
	}
	return libmp3lame.Params{
		SampleRate: c.SampleRate,
		Channels:   c.Channels,
		Bitrate:    c.Bitrate,
		Quality:    int(c.Quality),
		VBRMode:    mode,
		VBRQuality: c.VBRQuality,
	}
}

func containsInt(values []int, v int) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
