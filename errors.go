package lame

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrMisaligned is returned when a PCM buffer's length does not divide
	// into whole samples for the session's channel layout.
	ErrMisaligned = errors.New("pcm buffer misaligned")

	// ErrChannelMismatch is returned when an input shape's channel layout
	// does not match the encoder configuration.
	ErrChannelMismatch = errors.New("channel layout does not match encoder configuration")

	// ErrLengthMismatch is returned when split stereo channels have
	// differing sample counts.
	ErrLengthMismatch = errors.New("left and right channel lengths differ")

	// ErrSampleOutOfRange is returned when a sample amplitude falls outside
	// the signed 16-bit range. Samples are rejected, never clamped.
	ErrSampleOutOfRange = errors.New("sample amplitude outside signed 16-bit range")

	// ErrUnsupportedChunk is returned for wave chunk formats the encoder
	// cannot canonicalize.
	ErrUnsupportedChunk = errors.New("unsupported wave chunk format")

	// ErrAlreadyFlushed is returned by Encode and Flush once a session has
	// been flushed. Flushing is terminal.
	ErrAlreadyFlushed = errors.New("encoder already flushed")

	// ErrTooLateForTag is returned when a tag is applied after the session
	// has accepted audio. The ID3v2 tag is prepended to the stream, so it
	// must be staged first.
	ErrTooLateForTag = errors.New("tag must be applied before any audio is encoded")
)

// A ConfigError reports an encoder parameter that failed validation. No
// native handle exists after a construction failure.
type ConfigError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// A TagError reports a tag field value the target tag format cannot
// represent.
type TagError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *TagError) Error() string {
	return fmt.Sprintf("invalid tag %s %v: %s", e.Field, e.Value, e.Reason)
}
