// Package lame provides a streaming PCM to MP3 encoder session on top of
// the LAME codec: validated construction, incremental encoding across
// several PCM input shapes, partial-frame buffering, and ID3 tagging.
package lame

import (
	"github.com/edaniels/golog"
	"github.com/pion/mediadevices/pkg/wave"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/Kilerd/lame/libmp3lame"
)

// FrameSize is the number of samples per channel the codec consumes to
// produce one MP3 frame. Input smaller than a frame is buffered until a
// later call or Flush completes it.
const FrameSize = 1152

type sessionState int

const (
	stateConfigured sessionState = iota
	stateEncoding
	stateFlushed
)

// An Encoder is a streaming PCM to MP3 session. It owns one native codec
// handle, buffers partial frames across calls, and hands back compressed
// bytes incrementally: the concatenation of every Encode result followed
// by the Flush result, in call order, is the complete stream.
//
// An Encoder must be used from a single goroutine; the native handle it
// wraps is not reentrant.
type Encoder struct {
	cfg    EncoderConfig
	codec  *libmp3lame.Encoder
	logger golog.Logger

	state    sessionState
	poisoned error

	// residual samples, always shorter than one frame per channel
	left  []int16
	right []int16

	// reusable output buffer for the native encoder
	mp3Buf []byte

	samplesIn uint64
	bytesOut  uint64

	applied *Tag
}

// NewEncoder validates the accumulated options and initializes a session
// around a fresh codec handle. On failure no handle is left allocated.
// Callers own the result and should release it with Close; a session
// abandoned without Flush produces no trailer but must still be closed.
func NewEncoder(logger golog.Logger, opts ...Option) (*Encoder, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	codec, err := libmp3lame.NewEncoder(cfg.params())
	if err != nil {
		return nil, err
	}
	logger.Debugw("initialized mp3 encoder",
		"sample_rate", cfg.SampleRate,
		"channels", cfg.Channels,
		"bitrate", cfg.Bitrate,
		"vbr", cfg.VBRActive(),
	)
	return &Encoder{cfg: cfg, codec: codec, logger: logger}, nil
}

// Config returns the immutable configuration the session was built with.
func (e *Encoder) Config() EncoderConfig {
	return e.cfg
}

// EncodeBytes encodes raw little-endian interleaved 16-bit PCM.
func (e *Encoder) EncodeBytes(pcm []byte) ([]byte, error) {
	if err := e.checkLive(); err != nil {
		return nil, err
	}
	p, err := planarFromBytes(pcm, e.cfg.Channels)
	if err != nil {
		return nil, err
	}
	return e.encode(p)
}

// EncodeMono encodes a mono sample sequence. The session must be
// configured for one channel.
func (e *Encoder) EncodeMono(pcm []int16) ([]byte, error) {
	if err := e.checkLive(); err != nil {
		return nil, err
	}
	if e.cfg.Channels != 1 {
		return nil, errors.Wrapf(ErrChannelMismatch,
			"mono input into %d-channel encoder", e.cfg.Channels)
	}
	return e.encode(planar{left: pcm})
}

// EncodeStereo encodes split left/right channels of equal length. The
// session must be configured for two channels.
func (e *Encoder) EncodeStereo(left, right []int16) ([]byte, error) {
	if err := e.checkLive(); err != nil {
		return nil, err
	}
	if e.cfg.Channels != 2 {
		return nil, errors.Wrapf(ErrChannelMismatch,
			"stereo input into %d-channel encoder", e.cfg.Channels)
	}
	p, err := planarFromStereo(left, right)
	if err != nil {
		return nil, err
	}
	return e.encode(p)
}

// EncodeInterleaved encodes interleaved stereo samples (L,R,L,R,...).
// The session must be configured for two channels.
func (e *Encoder) EncodeInterleaved(pcm []int16) ([]byte, error) {
	if err := e.checkLive(); err != nil {
		return nil, err
	}
	if e.cfg.Channels != 2 {
		return nil, errors.Wrapf(ErrChannelMismatch,
			"interleaved stereo input into %d-channel encoder", e.cfg.Channels)
	}
	p, err := planarFromInterleaved(pcm)
	if err != nil {
		return nil, err
	}
	return e.encode(p)
}

// EncodeSamples encodes an untyped sample sequence, interleaved for
// stereo sessions. Amplitudes outside the signed 16-bit range are
// rejected with ErrSampleOutOfRange.
func (e *Encoder) EncodeSamples(pcm []int) ([]byte, error) {
	if err := e.checkLive(); err != nil {
		return nil, err
	}
	p, err := planarFromInts(pcm, e.cfg.Channels)
	if err != nil {
		return nil, err
	}
	return e.encode(p)
}

// EncodeChunk encodes a mediadevices wave chunk. Int16 interleaved and
// non-interleaved chunks are accepted; the chunk's channel count must
// match the session's.
func (e *Encoder) EncodeChunk(chunk wave.Audio) ([]byte, error) {
	if err := e.checkLive(); err != nil {
		return nil, err
	}
	p, err := planarFromChunk(chunk, e.cfg.Channels)
	if err != nil {
		return nil, err
	}
	return e.encode(p)
}

// Flush drains the residual buffer and the codec, returning the final
// bytes of the stream: the padded last frame, the codec's trailing
// frames, and the ID3v1 trailer when a tag was applied. The residual is
// zero-padded to a whole frame, so output duration rounds up to a frame
// boundary. Flushing is terminal; a second call fails with
// ErrAlreadyFlushed.
func (e *Encoder) Flush() ([]byte, error) {
	if err := e.checkLive(); err != nil {
		return nil, err
	}

	var out []byte
	if len(e.left) > 0 {
		e.left = append(e.left, make([]int16, FrameSize-len(e.left))...)
		if e.cfg.Channels == 2 {
			e.right = append(e.right, make([]int16, FrameSize-len(e.right))...)
		}
		var right []int16
		if e.cfg.Channels == 2 {
			right = e.right
		}
		produced, err := e.encodeFrames(e.left, right)
		if err != nil {
			return nil, e.poison(err)
		}
		out = append(out, produced...)
	}

	e.growBuffer(0)
	n, err := e.codec.Flush(e.mp3Buf)
	if err != nil {
		return nil, e.poison(err)
	}
	out = append(out, e.mp3Buf[:n]...)
	e.bytesOut += uint64(n)

	e.state = stateFlushed
	e.left, e.right = nil, nil
	e.logger.Debugw("flushed mp3 encoder", "samples_in", e.samplesIn, "bytes_out", e.bytesOut)
	return out, nil
}

// Close releases the native codec handle. It is idempotent and safe on
// every path, including sessions abandoned without Flush.
func (e *Encoder) Close() error {
	return e.codec.Close()
}

// TotalSamples reports the cumulative per-channel samples accepted.
func (e *Encoder) TotalSamples() uint64 {
	return e.samplesIn
}

// TotalBytes reports the cumulative compressed bytes produced.
func (e *Encoder) TotalBytes() uint64 {
	return e.bytesOut
}

// AppliedTag returns a copy of the committed tag snapshot, if any.
func (e *Encoder) AppliedTag() (Tag, bool) {
	if e.applied == nil {
		return Tag{}, false
	}
	return *e.applied, true
}

// applyTag commits a tag snapshot. Only valid before the session accepts
// audio, since the ID3v2 tag is emitted ahead of the first frame.
func (e *Encoder) applyTag(snapshot Tag) error {
	if err := e.checkLive(); err != nil {
		return err
	}
	if e.state != stateConfigured {
		return errors.Wrap(ErrTooLateForTag, "session has already accepted audio")
	}
	if err := e.codec.SetTag(snapshot.fields()); err != nil {
		return err
	}
	e.applied = &snapshot
	return nil
}

func (e *Encoder) checkLive() error {
	if e.poisoned != nil {
		return errors.Wrap(e.poisoned, "session poisoned by earlier codec failure")
	}
	if e.state == stateFlushed {
		return ErrAlreadyFlushed
	}
	return nil
}

// poison marks the session unusable and releases the handle immediately;
// codec failures are not recoverable.
func (e *Encoder) poison(err error) error {
	e.poisoned = err
	return multierr.Combine(err, e.codec.Close())
}

// encode appends canonical samples to the residual buffer and delegates
// every complete frame to the codec. Samples short of a frame stay
// buffered; validation errors never reach this point, so the residual is
// only ever mutated by accepted input.
func (e *Encoder) encode(p planar) ([]byte, error) {
	e.left = append(e.left, p.left...)
	if e.cfg.Channels == 2 {
		e.right = append(e.right, p.right...)
	}
	e.samplesIn += uint64(p.samples())

	var out []byte
	if whole := (len(e.left) / FrameSize) * FrameSize; whole > 0 {
		var right []int16
		if e.cfg.Channels == 2 {
			right = e.right[:whole]
		}
		produced, err := e.encodeFrames(e.left[:whole], right)
		if err != nil {
			return nil, e.poison(err)
		}
		out = produced
		e.left = e.left[:copy(e.left, e.left[whole:])]
		if e.cfg.Channels == 2 {
			e.right = e.right[:copy(e.right, e.right[whole:])]
		}
	}

	if e.state == stateConfigured {
		e.state = stateEncoding
	}
	return out, nil
}

// encodeFrames feeds whole frames to the codec and copies out whatever
// it produced, which may be nothing while the codec buffers internally.
func (e *Encoder) encodeFrames(left, right []int16) ([]byte, error) {
	e.growBuffer(len(left))
	n, err := e.codec.Encode(left, right, e.mp3Buf)
	if err != nil {
		return nil, err
	}
	e.bytesOut += uint64(n)
	out := make([]byte, n)
	copy(out, e.mp3Buf[:n])
	return out, nil
}

// growBuffer sizes the reusable output buffer to the codec's documented
// worst case for n samples: n*5/4 + 7200 bytes.
func (e *Encoder) growBuffer(n int) {
	required := n*5/4 + 7200
	if len(e.mp3Buf) < required {
		e.mp3Buf = make([]byte, required)
	}
}
