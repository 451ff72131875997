package media

import (
	"slices"
	"strings"
)

// audioExts lists the containers the audio decoder understands.
var audioExts = []string{".mp3", ".wav", ".flac", ".ogg"}

var playlistExts = map[string]bool{
	".m3u":  true,
	".m3u8": true,
	".pls":  true,
}

// IsSupportedExt returns true if the extension is a decodable audio format.
func IsSupportedExt(ext string) bool {
	return slices.Contains(audioExts, strings.ToLower(ext))
}

// IsPlaylistExt returns true if the extension is a supported playlist format.
func IsPlaylistExt(ext string) bool {
	return playlistExts[strings.ToLower(ext)]
}

// SupportedExtsList returns a human-readable list of supported audio formats.
func SupportedExtsList() string {
	return strings.Join(audioExts, ", ")
}
