package lists

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestReadLines_SkipsCommentsAndBlanks(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "list.txt", "# Some Channel\nUC123\n\n  UC456  \n#UC789\n")

	lines, err := ReadLines(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 2 || lines[0] != "UC123" || lines[1] != "UC456" {
		t.Errorf("unexpected lines: %q", lines)
	}
}

func TestReadLines_Missing(t *testing.T) {
	_, err := ReadLines(filepath.Join(t.TempDir(), "nope.txt"))
	if !errors.Is(err, ErrListNotFound) {
		t.Errorf("expected ErrListNotFound, got %v", err)
	}
}

func TestReadKey(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "key.txt", "  abc-123  \n")
	key, err := ReadKey(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "abc-123" {
		t.Errorf("expected abc-123, got %q", key)
	}

	empty := writeFile(t, dir, "empty.txt", "# nothing here\n")
	if _, err := ReadKey(empty); err == nil {
		t.Error("expected error for empty key file")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{
		Archive:  writeFile(t, dir, "archive.txt", "UCarchive\n"),
		Check:    writeFile(t, dir, "check.txt", "UCcheck\n"),
		Keywords: writeFile(t, dir, "keywords.txt", "Karaoke\nCollab Stream\n"),
	}

	sets, err := Load(paths)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sets.InArchive("UCarchive") || !sets.InCheck("UCcheck") {
		t.Error("expected channels to be loaded")
	}
	if _, ok := sets.MatchKeyword("bigcollabstreamtonight"); !ok {
		t.Error("expected normalized keyword to match")
	}
}

func TestLoad_MissingKeywordsTolerated(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{
		Archive:  writeFile(t, dir, "archive.txt", "UCarchive\n"),
		Check:    writeFile(t, dir, "check.txt", "UCcheck\n"),
		Keywords: filepath.Join(dir, "missing.txt"),
	}

	sets, err := Load(paths)
	if err != nil {
		t.Fatalf("missing keyword list should not fail: %v", err)
	}
	if _, _, kw := sets.Sizes(); kw != 0 {
		t.Errorf("expected no keywords, got %d", kw)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{
		Archive: filepath.Join(dir, "missing.txt"),
		Check:   writeFile(t, dir, "check.txt", "UCcheck\n"),
	}
	if _, err := Load(paths); !errors.Is(err, ErrListNotFound) {
		t.Errorf("expected ErrListNotFound, got %v", err)
	}

	paths = Paths{
		Archive: writeFile(t, dir, "archive.txt", "UCarchive\n"),
		Check:   filepath.Join(dir, "missing.txt"),
	}
	if _, err := Load(paths); !errors.Is(err, ErrListNotFound) {
		t.Errorf("expected ErrListNotFound, got %v", err)
	}
}
