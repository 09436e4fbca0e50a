package lame

import "github.com/Kilerd/lame/libmp3lame"

// CodecVersion reports the version string of the underlying codec.
func CodecVersion() string {
	return libmp3lame.Version()
}

// CodecURL reports the project URL of the underlying codec.
func CodecURL() string {
	return libmp3lame.URL()
}
