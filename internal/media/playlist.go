package media

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ParseLocalPlaylist parses a local .m3u/.m3u8/.pls file into file paths.
// Relative entries are resolved against the playlist directory. Remote
// entries are skipped because only local, fully buffered files are played.
func ParseLocalPlaylist(path string) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !IsPlaylistExt(ext) {
		return nil, fmt.Errorf("unsupported playlist format %s", ext)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("reading playlist: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("playlist is not valid UTF-8")
	}

	text := strings.TrimPrefix(string(data), "\uFEFF")
	scanner := bufio.NewScanner(strings.NewReader(text))
	baseDir := filepath.Dir(absPath)

	var raw []string
	if ext == ".pls" {
		raw = plsEntries(scanner)
	} else {
		raw = m3uEntries(scanner)
	}

	out := make([]string, 0, len(raw))
	for _, entry := range raw {
		entry = strings.Trim(entry, `"`)
		if isRemote(entry) {
			continue
		}
		out = append(out, resolveEntry(entry, baseDir))
	}
	return out, nil
}

func m3uEntries(scanner *bufio.Scanner) []string {
	var entries []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, line)
	}
	return entries
}

func plsEntries(scanner *bufio.Scanner) []string {
	var entries []string
	for scanner.Scan() {
		key, val, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		if val == "" || !isPLSFileKey(key) {
			continue
		}
		entries = append(entries, val)
	}
	return entries
}

// isPLSFileKey matches File1, File2... case-insensitively.
func isPLSFileKey(key string) bool {
	if len(key) <= len("file") || !strings.EqualFold(key[:4], "file") {
		return false
	}
	for _, r := range key[4:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isRemote(entry string) bool {
	lower := strings.ToLower(entry)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func resolveEntry(raw, baseDir string) string {
	p := filepath.Clean(raw)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
