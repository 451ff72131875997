package ui

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/olivier-w/wavedeck/internal/media"
)

func tempDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("data"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func press(t *testing.T, m BrowserModel, key tea.KeyMsg) (BrowserModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(key)
	bm, ok := next.(BrowserModel)
	if !ok {
		t.Fatalf("Update returned %T, want BrowserModel", next)
	}
	return bm, cmd
}

func TestBrowserListsAudioAndPlaylists(t *testing.T) {
	dir := tempDir(t, "a.wav", "b.mp3", "mix.m3u", "notes.txt")
	m := NewBrowser(dir)
	if m.HasError() {
		t.Fatalf("NewBrowser: %v", m.Error())
	}

	items := m.list.Items()
	if len(items) != 4 {
		t.Fatalf("got %d items, want play-all plus 3 files", len(items))
	}
	if _, ok := items[0].(playAllItem); !ok {
		t.Fatalf("first item is %T, want playAllItem", items[0])
	}
	for _, item := range items[1:] {
		if f, ok := item.(fileItem); ok && f.name == "notes.txt" {
			t.Fatal("browser lists a text file")
		}
	}
}

func TestBrowserPlayAllSelectsDirectory(t *testing.T) {
	dir := tempDir(t, "a.wav", "b.flac")
	m := NewBrowser(dir)

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	res := m.Result()
	if res.Cancelled || len(res.Args) != 1 || res.Args[0] != dir {
		t.Fatalf("result = %+v, want directory", res)
	}
}

func TestBrowserSelectsFile(t *testing.T) {
	dir := tempDir(t, "a.wav", "b.ogg")
	m := NewBrowser(dir)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	res := m.Result()
	want := filepath.Join(dir, "a.wav")
	if res.Cancelled || len(res.Args) != 1 || res.Args[0] != want {
		t.Fatalf("result = %+v, want %s", res, want)
	}
}

func TestBrowserSingleTrackHasNoPlayAll(t *testing.T) {
	m := NewBrowser(tempDir(t, "only.wav"))
	if _, ok := m.list.Items()[0].(fileItem); !ok {
		t.Fatalf("first item is %T, want fileItem", m.list.Items()[0])
	}
}

func TestBrowserCancel(t *testing.T) {
	m := NewBrowser(tempDir(t, "a.wav"))
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil || !m.Result().Cancelled {
		t.Fatalf("result = %+v, want cancelled", m.Result())
	}
}

func TestBrowserEmptyDirectory(t *testing.T) {
	m := NewBrowser(tempDir(t, "readme.md"))
	if !errors.Is(m.Error(), media.ErrNoTracks) {
		t.Fatalf("Error() = %v, want ErrNoTracks", m.Error())
	}
}
