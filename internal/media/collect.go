package media

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoTracks is returned when none of the arguments yield a playable file.
var ErrNoTracks = errors.New("no playable audio files")

// Collect expands command-line arguments into an ordered list of audio
// files. Directories contribute their supported files sorted by name (not
// recursive); playlists contribute their local entries.
func Collect(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", arg, err)
		}

		switch ext := strings.ToLower(filepath.Ext(arg)); {
		case info.IsDir():
			files, err := scanDir(arg)
			if err != nil {
				return nil, err
			}
			out = append(out, files...)
		case IsPlaylistExt(ext):
			entries, err := ParseLocalPlaylist(arg)
			if err != nil {
				return nil, err
			}
			out = append(out, FilterPlayable(entries)...)
		case IsSupportedExt(ext):
			out = append(out, absPath(arg))
		default:
			return nil, fmt.Errorf("unsupported format %s (supported: %s)", ext, SupportedExtsList())
		}
	}
	if len(out) == 0 {
		return nil, ErrNoTracks
	}
	return out, nil
}

// FilterPlayable keeps only existing, non-directory, supported files.
func FilterPlayable(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			continue
		}
		if !IsSupportedExt(filepath.Ext(p)) {
			continue
		}
		out = append(out, absPath(p))
	}
	return out
}

func scanDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsSupportedExt(filepath.Ext(e.Name())) {
			continue
		}
		files = append(files, absPath(filepath.Join(dir, e.Name())))
	}
	sort.Strings(files)
	return files, nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
