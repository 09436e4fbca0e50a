package lame

import "github.com/Kilerd/lame/libmp3lame"

// A Tag accumulates ID3 metadata for an encoder session. Setters chain
// and perform no validation; Apply validates and commits the current
// field values as an atomic snapshot. The session freezes that snapshot,
// so mutating the builder afterwards has no effect on an applied tag.
// Re-applying before any audio is encoded overwrites the staged tag.
type Tag struct {
	title       string
	artist      string
	album       string
	albumArtist string
	year        string
	comment     string
	genre       string
	track       int
	hasTrack    bool
}

// NewTag returns an empty tag builder. Unset fields are omitted from the
// applied tag.
func NewTag() *Tag {
	return &Tag{}
}

// Title sets the song title.
func (t *Tag) Title(title string) *Tag {
	t.title = title
	return t
}

// Artist sets the performing artist.
func (t *Tag) Artist(artist string) *Tag {
	t.artist = artist
	return t
}

// Album sets the album name.
func (t *Tag) Album(album string) *Tag {
	t.album = album
	return t
}

// AlbumArtist sets the album-level artist.
func (t *Tag) AlbumArtist(albumArtist string) *Tag {
	t.albumArtist = albumArtist
	return t
}

// Year sets the release year.
func (t *Tag) Year(year string) *Tag {
	t.year = year
	return t
}

// Comment sets a free-form comment.
func (t *Tag) Comment(comment string) *Tag {
	t.comment = comment
	return t
}

// Track sets the track number. The ID3v1 trailer stores a single byte,
// so Apply rejects values outside [0, 255].
func (t *Tag) Track(track int) *Tag {
	t.track = track
	t.hasTrack = true
	return t
}

// Genre sets the genre name.
func (t *Tag) Genre(genre string) *Tag {
	t.genre = genre
	return t
}

// Apply commits the accumulated fields to enc as a frozen snapshot. It
// fails with ErrTooLateForTag once the session has accepted audio, since
// the ID3v2 tag must precede the first compressed frame.
func (t *Tag) Apply(enc *Encoder) error {
	if t.hasTrack && (t.track < 0 || t.track > 255) {
		return &TagError{Field: "track", Value: t.track, Reason: "must be in [0, 255]"}
	}
	return enc.applyTag(*t)
}

func (t Tag) fields() libmp3lame.Tag {
	return libmp3lame.Tag{
		Title:       t.title,
		Artist:      t.artist,
		Album:       t.album,
		AlbumArtist: t.albumArtist,
		Year:        t.year,
		Comment:     t.comment,
		Genre:       t.genre,
		Track:       t.track,
		HasTrack:    t.hasTrack,
	}
}
