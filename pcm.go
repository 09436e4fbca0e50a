package lame

import (
	"encoding/binary"
	"math"

	"github.com/pion/mediadevices/pkg/wave"
	"github.com/pkg/errors"
)

// planar is the canonical input form: signed 16-bit samples per channel.
// right is nil for mono audio. Every input shape converts to this before
// touching the session's residual buffer, so numerically identical audio
// encodes identically regardless of how it was handed in.
type planar struct {
	left  []int16
	right []int16
}

func (p planar) samples() int {
	return len(p.left)
}

// planarFromBytes decodes little-endian interleaved 16-bit PCM.
func planarFromBytes(buf []byte, channels int) (planar, error) {
	stride := 2 * channels
	if len(buf)%stride != 0 {
		return planar{}, errors.Wrapf(ErrMisaligned,
			"%d bytes is not a multiple of %d (2 bytes x %d channels)", len(buf), stride, channels)
	}
	n := len(buf) / stride
	left := make([]int16, n)
	if channels == 1 {
		for i := range left {
			left[i] = int16(binary.LittleEndian.Uint16(buf[2*i:]))
		}
		return planar{left: left}, nil
	}
	right := make([]int16, n)
	for i := 0; i < n; i++ {
		left[i] = int16(binary.LittleEndian.Uint16(buf[4*i:]))
		right[i] = int16(binary.LittleEndian.Uint16(buf[4*i+2:]))
	}
	return planar{left: left, right: right}, nil
}

// planarFromInterleaved splits interleaved stereo samples (L,R,L,R,...).
func planarFromInterleaved(pcm []int16) (planar, error) {
	if len(pcm)%2 != 0 {
		return planar{}, errors.Wrapf(ErrMisaligned,
			"%d interleaved samples do not split into stereo pairs", len(pcm))
	}
	n := len(pcm) / 2
	left := make([]int16, n)
	right := make([]int16, n)
	for i := 0; i < n; i++ {
		left[i] = pcm[2*i]
		right[i] = pcm[2*i+1]
	}
	return planar{left: left, right: right}, nil
}

// planarFromStereo validates split stereo channels.
func planarFromStereo(left, right []int16) (planar, error) {
	if len(left) != len(right) {
		return planar{}, errors.Wrapf(ErrLengthMismatch,
			"left has %d samples, right has %d", len(left), len(right))
	}
	return planar{left: left, right: right}, nil
}

// planarFromInts canonicalizes an untyped sample sequence, interleaved
// for stereo. Out-of-range amplitudes are rejected, never clamped, so a
// caller cannot silently lose data.
func planarFromInts(pcm []int, channels int) (planar, error) {
	for i, s := range pcm {
		if s < math.MinInt16 || s > math.MaxInt16 {
			return planar{}, errors.Wrapf(ErrSampleOutOfRange,
				"sample %d at index %d is outside [%d, %d]", s, i, math.MinInt16, math.MaxInt16)
		}
	}
	if channels == 1 {
		left := make([]int16, len(pcm))
		for i, s := range pcm {
			left[i] = int16(s)
		}
		return planar{left: left}, nil
	}
	if len(pcm)%2 != 0 {
		return planar{}, errors.Wrapf(ErrMisaligned,
			"%d interleaved samples do not split into stereo pairs", len(pcm))
	}
	n := len(pcm) / 2
	left := make([]int16, n)
	right := make([]int16, n)
	for i := 0; i < n; i++ {
		left[i] = int16(pcm[2*i])
		right[i] = int16(pcm[2*i+1])
	}
	return planar{left: left, right: right}, nil
}

// planarFromChunk canonicalizes a mediadevices wave chunk.
func planarFromChunk(chunk wave.Audio, channels int) (planar, error) {
	switch c := chunk.(type) {
	case *wave.Int16Interleaved:
		if c.Size.Channels != channels {
			return planar{}, errors.Wrapf(ErrChannelMismatch,
				"chunk has %d channels, encoder configured for %d", c.Size.Channels, channels)
		}
		if channels == 1 {
			return planar{left: c.Data}, nil
		}
		return planarFromInterleaved(c.Data)
	case *wave.Int16NonInterleaved:
		if c.Size.Channels != channels || len(c.Data) != channels {
			return planar{}, errors.Wrapf(ErrChannelMismatch,
				"chunk has %d channels, encoder configured for %d", c.Size.Channels, channels)
		}
		if channels == 1 {
			return planar{left: c.Data[0]}, nil
		}
		return planarFromStereo(c.Data[0], c.Data[1])
	default:
		return planar{}, errors.Wrapf(ErrUnsupportedChunk, "%T", chunk)
	}
}
