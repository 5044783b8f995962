package media

import (
	"io"
	"strings"

	"github.com/dhowden/tag"
)

// Tags is the metadata embedded in an audio file.
type Tags struct {
	Title  string
	Artist string
}

// ReadTags reads ID3, MP4, FLAC or Ogg metadata from r and rewinds it.
// Files without metadata yield tag.ErrNoTagsFound.
func ReadTags(r io.ReadSeeker) (Tags, error) {
	defer r.Seek(0, io.SeekStart) //nolint:errcheck

	m, err := tag.ReadFrom(r)
	if err != nil {
		return Tags{}, err
	}
	return Tags{
		Title:  strings.TrimSpace(m.Title()),
		Artist: strings.TrimSpace(m.Artist()),
	}, nil
}
