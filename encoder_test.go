package lame

import (
	"bytes"
	"errors"
	"io"
	"testing"

	mp3 "github.com/hajimehoshi/go-mp3"
	"go.viam.com/test"
)

func TestSilenceEncodes(t *testing.T) {
	enc := newTestEncoder(t,
		WithSampleRate(44100),
		WithChannels(1),
		WithBitrate(128),
		WithQuality(QualityStandard),
	)
	defer enc.Close()

	out, err := enc.EncodeMono(make([]int16, FrameSize))
	test.That(t, err, test.ShouldBeNil)
	final, err := enc.Flush()
	test.That(t, err, test.ShouldBeNil)

	// Silence still encodes to a valid, non-empty frame.
	test.That(t, len(out)+len(final), test.ShouldBeGreaterThan, 0)
}

func TestEncodeAfterFlush(t *testing.T) {
	enc := newTestEncoder(t)
	defer enc.Close()

	_, err := enc.Flush()
	test.That(t, err, test.ShouldBeNil)

	_, err = enc.EncodeMono(make([]int16, FrameSize))
	test.That(t, errors.Is(err, ErrAlreadyFlushed), test.ShouldBeTrue)
	_, err = enc.EncodeBytes(make([]byte, 2*FrameSize))
	test.That(t, errors.Is(err, ErrAlreadyFlushed), test.ShouldBeTrue)
}

func TestDoubleFlush(t *testing.T) {
	enc := newTestEncoder(t)
	defer enc.Close()

	_, err := enc.Flush()
	test.That(t, err, test.ShouldBeNil)
	_, err = enc.Flush()
	test.That(t, errors.Is(err, ErrAlreadyFlushed), test.ShouldBeTrue)
}

// The complete stream must not depend on how the input was chunked.
func TestChunkBoundaryIndependence(t *testing.T) {
	pcm := sineWave(FrameSize*5+421, 97)

	whole := encodeAndFlush(t, func(enc *Encoder) ([]byte, error) {
		return enc.EncodeMono(pcm)
	})

	for _, boundaries := range [][]int{
		{1, 130, 1151, 1152, 2000},
		{FrameSize, FrameSize * 3},
		{5000},
	} {
		chunked := encodeAndFlush(t, func(enc *Encoder) ([]byte, error) {
			var out []byte
			rest := pcm
			prev := 0
			for _, b := range boundaries {
				produced, err := enc.EncodeMono(rest[:b-prev])
				if err != nil {
					return nil, err
				}
				out = append(out, produced...)
				rest = rest[b-prev:]
				prev = b
			}
			produced, err := enc.EncodeMono(rest)
			if err != nil {
				return nil, err
			}
			return append(out, produced...), nil
		})
		test.That(t, chunked, test.ShouldResemble, whole)
	}
}

func TestOutputDecodes(t *testing.T) {
	pcm := sineWave(FrameSize*20, 100)
	stream := encodeAndFlush(t, func(enc *Encoder) ([]byte, error) {
		return enc.EncodeMono(pcm)
	}, WithSampleRate(44100))

	dec, err := mp3.NewDecoder(bytes.NewReader(stream))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dec.SampleRate(), test.ShouldEqual, 44100)

	decoded, err := io.ReadAll(dec)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(decoded), test.ShouldBeGreaterThan, 0)
}

func TestCounters(t *testing.T) {
	enc := newTestEncoder(t, WithChannels(2))
	defer enc.Close()

	test.That(t, enc.TotalSamples(), test.ShouldEqual, 0)

	_, err := enc.EncodeStereo(make([]int16, 500), make([]int16, 500))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, enc.TotalSamples(), test.ShouldEqual, 500)

	_, err = enc.EncodeStereo(make([]int16, FrameSize), make([]int16, FrameSize))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, enc.TotalSamples(), test.ShouldEqual, 500+FrameSize)

	_, err = enc.Flush()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, enc.TotalBytes(), test.ShouldBeGreaterThan, 0)
}

// Residual input below one frame is held back, then drained by Flush
// with silence padding.
func TestResidualBuffering(t *testing.T) {
	enc := newTestEncoder(t)
	defer enc.Close()

	out, err := enc.EncodeMono(make([]int16, 100))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldBeEmpty)

	final, err := enc.Flush()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(final), test.ShouldBeGreaterThan, 0)
}

func TestCloseIdempotent(t *testing.T) {
	enc := newTestEncoder(t)
	test.That(t, enc.Close(), test.ShouldBeNil)
	test.That(t, enc.Close(), test.ShouldBeNil)
}

func TestAbandonWithoutFlush(t *testing.T) {
	enc := newTestEncoder(t)
	_, err := enc.EncodeMono(make([]int16, FrameSize))
	test.That(t, err, test.ShouldBeNil)
	// No Flush: no trailer is produced, but the handle must still release.
	test.That(t, enc.Close(), test.ShouldBeNil)
}

func TestCodecIntrospection(t *testing.T) {
	test.That(t, CodecVersion(), test.ShouldNotBeEmpty)
	test.That(t, CodecURL(), test.ShouldNotBeEmpty)
}
