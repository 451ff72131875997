// Package track holds a loaded audio file and its decoded buffer.
package track

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bogem/id3v2/v2"
	"github.com/olivier-w/wavedeck/internal/audio"
)

// Track is one audio blob. It is immutable once decoded; a track change
// replaces the whole Track.
type Track struct {
	Title  string
	Artist string
	Path   string
	Blob   []byte

	once   sync.Once
	buffer *audio.Buffer
	err    error
}

// New wraps an in-memory blob.
func New(title string, blob []byte) *Track {
	return &Track{Title: title, Blob: blob}
}

// Open reads a file into memory and picks a title from its ID3v2 tags,
// falling back to the file name.
func Open(path string) (*Track, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	t := &Track{Path: path, Blob: data}
	t.Title, t.Artist = readTags(data)
	if t.Title == "" {
		t.Title = TitleFromPath(path)
	}
	return t, nil
}

// TitleFromPath returns the file name without its extension.
func TitleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func readTags(data []byte) (title, artist string) {
	if audio.Sniff(data) != audio.FormatMP3 {
		return "", ""
	}
	tag, err := id3v2.ParseReader(bytes.NewReader(data), id3v2.Options{Parse: true})
	if err != nil {
		return "", ""
	}
	defer tag.Close()
	return strings.TrimSpace(tag.Title()), strings.TrimSpace(tag.Artist())
}

// Decode decodes the blob once and caches the result, including failures.
func (t *Track) Decode() (*audio.Buffer, error) {
	t.once.Do(func() {
		t.buffer, t.err = audio.Decode(t.Blob)
	})
	return t.buffer, t.err
}

// String returns "Artist - Title" when an artist is known.
func (t *Track) String() string {
	if t.Artist != "" {
		return t.Artist + " - " + t.Title
	}
	return t.Title
}
