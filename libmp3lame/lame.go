// Package libmp3lame contains minimal Go bindings to the LAME MP3 encoder.
//
// The package maps the small slice of the native API the wrapper layer
// needs: handle initialization, the three encode entry points, flush,
// ID3 tagging, and version introspection. All buffering and validation
// policy lives in the parent package; this one only crosses the C
// boundary.
package libmp3lame

/*
#cgo LDFLAGS: -lmp3lame
#include <lame/lame.h>
#include <stdlib.h>
*/
import "C"

import (
	"fmt"
	"strconv"
	"unsafe"

	"github.com/pkg/errors"
)

// VBR mode ordinals understood by lame_set_VBR.
const (
	VBRModeOff     = 0
	VBRModeAverage = 3
	VBRModeDefault = 4
)

// ErrClosed is returned when an encoder handle has already been released.
var ErrClosed = errors.New("lame handle already closed")

// An EncodingError carries the negative status code reported by the
// native library.
type EncodingError struct {
	Code int
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("lame encoding failed with code %d", e.Code)
}

// Params are the native encoder settings applied during initialization.
// They are assumed to be pre-validated by the caller; the native setters
// still get the final say.
type Params struct {
	SampleRate int
	Channels   int
	Bitrate    int
	Quality    int
	VBRMode    int
	VBRQuality int
}

// Tag is the ID3 metadata applied to an encoder before audio is fed in.
type Tag struct {
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	Year        string
	Comment     string
	Genre       string
	Track       int
	HasTrack    bool
}

// An Encoder owns one native LAME handle. It is not safe for concurrent
// use; the underlying library is not reentrant.
type Encoder struct {
	gfp *C.lame_global_flags
}

// NewEncoder initializes a native handle with the given parameters. The
// handle is released before returning on every failure path.
func NewEncoder(p Params) (*Encoder, error) {
	gfp := C.lame_init()
	if gfp == nil {
		return nil, errors.New("lame initialization failed")
	}

	fail := func(param string) (*Encoder, error) {
		C.lame_close(gfp)
		return nil, errors.Errorf("lame rejected %s", param)
	}

	if C.lame_set_in_samplerate(gfp, C.int(p.SampleRate)) < 0 {
		return fail("sample rate")
	}
	C.lame_set_out_samplerate(gfp, C.int(p.SampleRate))
	if C.lame_set_num_channels(gfp, C.int(p.Channels)) < 0 {
		return fail("channel count")
	}
	if C.lame_set_quality(gfp, C.int(p.Quality)) < 0 {
		return fail("quality")
	}
	if C.lame_set_VBR(gfp, C.vbr_mode(p.VBRMode)) < 0 {
		return fail("vbr mode")
	}
	if p.VBRMode == VBRModeOff {
		if C.lame_set_brate(gfp, C.int(p.Bitrate)) < 0 {
			return fail("bitrate")
		}
	} else {
		if C.lame_set_VBR_q(gfp, C.int(p.VBRQuality)) < 0 {
			return fail("vbr quality")
		}
		if p.VBRMode == VBRModeAverage {
			if C.lame_set_VBR_mean_bitrate_kbps(gfp, C.int(p.Bitrate)) < 0 {
				return fail("mean bitrate")
			}
		}
	}

	if C.lame_init_params(gfp) < 0 {
		C.lame_close(gfp)
		return nil, errors.New("lame parameter initialization failed")
	}

	return &Encoder{gfp: gfp}, nil
}

// Encode compresses planar PCM. A nil right channel encodes mono. It
// returns the number of bytes written to out.
func (e *Encoder) Encode(left, right []int16, out []byte) (int, error) {
	if e.gfp == nil {
		return 0, ErrClosed
	}
	if len(left) == 0 {
		return 0, nil
	}
	var rightPtr *C.short
	if right != nil {
		rightPtr = (*C.short)(unsafe.Pointer(&right[0]))
	}
	n := C.lame_encode_buffer(
		e.gfp,
		(*C.short)(unsafe.Pointer(&left[0])),
		rightPtr,
		C.int(len(left)),
		(*C.uchar)(unsafe.Pointer(&out[0])),
		C.int(len(out)),
	)
	if n < 0 {
		return 0, &EncodingError{Code: int(n)}
	}
	return int(n), nil
}

// EncodeInterleaved compresses interleaved stereo PCM (L,R,L,R,...).
func (e *Encoder) EncodeInterleaved(pcm []int16, out []byte) (int, error) {
	if e.gfp == nil {
		return 0, ErrClosed
	}
	if len(pcm) == 0 {
		return 0, nil
	}
	n := C.lame_encode_buffer_interleaved(
		e.gfp,
		(*C.short)(unsafe.Pointer(&pcm[0])),
		C.int(len(pcm)/2),
		(*C.uchar)(unsafe.Pointer(&out[0])),
		C.int(len(out)),
	)
	if n < 0 {
		return 0, &EncodingError{Code: int(n)}
	}
	return int(n), nil
}

// Flush drains the native encoder, producing the last frames and, when a
// tag was set, the ID3v1 trailer.
func (e *Encoder) Flush(out []byte) (int, error) {
	if e.gfp == nil {
		return 0, ErrClosed
	}
	n := C.lame_encode_flush(
		e.gfp,
		(*C.uchar)(unsafe.Pointer(&out[0])),
		C.int(len(out)),
	)
	if n < 0 {
		return 0, &EncodingError{Code: int(n)}
	}
	return int(n), nil
}

// SetTag resets the handle's ID3 state and applies t. The resulting
// ID3v2 tag is emitted ahead of the first compressed frame, so the call
// only has an effect before audio has been fed in.
func (e *Encoder) SetTag(t Tag) error {
	if e.gfp == nil {
		return ErrClosed
	}
	C.id3tag_init(e.gfp)
	C.id3tag_add_v2(e.gfp)

	setField := func(set func(*C.char), value string) {
		if value == "" {
			return
		}
		cs := C.CString(value)
		defer C.free(unsafe.Pointer(cs))
		set(cs)
	}

	setField(func(cs *C.char) { C.id3tag_set_title(e.gfp, cs) }, t.Title)
	setField(func(cs *C.char) { C.id3tag_set_artist(e.gfp, cs) }, t.Artist)
	setField(func(cs *C.char) { C.id3tag_set_album(e.gfp, cs) }, t.Album)
	setField(func(cs *C.char) { C.id3tag_set_year(e.gfp, cs) }, t.Year)
	setField(func(cs *C.char) { C.id3tag_set_comment(e.gfp, cs) }, t.Comment)
	if t.HasTrack {
		setField(func(cs *C.char) { C.id3tag_set_track(e.gfp, cs) }, strconv.Itoa(t.Track))
	}
	if t.Genre != "" {
		cs := C.CString(t.Genre)
		defer C.free(unsafe.Pointer(cs))
		if C.id3tag_set_genre(e.gfp, cs) < 0 {
			return errors.Errorf("lame rejected genre %q", t.Genre)
		}
	}
	if t.AlbumArtist != "" {
		// No dedicated setter; TPE2 goes in as a raw field value.
		cs := C.CString("TPE2=" + t.AlbumArtist)
		defer C.free(unsafe.Pointer(cs))
		if C.id3tag_set_fieldvalue(e.gfp, cs) < 0 {
			return errors.Errorf("lame rejected album artist %q", t.AlbumArtist)
		}
	}
	return nil
}

// Close releases the native handle. It is idempotent.
func (e *Encoder) Close() error {
	if e.gfp != nil {
		C.lame_close(e.gfp)
		e.gfp = nil
	}
	return nil
}

// Version reports the version string of the linked LAME library.
func Version() string {
	return C.GoString(C.get_lame_version())
}

// URL reports the project URL of the linked LAME library.
func URL() string {
	return C.GoString(C.get_lame_url())
}
