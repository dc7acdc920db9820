// Package lists reads the line-oriented tracking lists and key files.
package lists

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/vietddude/akashic/internal/core/domain"
)

// ErrListNotFound is returned when a required list or key file is missing.
var ErrListNotFound = errors.New("list file not found")

// Paths names the three list files.
type Paths struct {
	Archive  string `yaml:"archive"`
	Check    string `yaml:"check"`
	Keywords string `yaml:"keywords"`
}

// ReadLines returns the trimmed, non-empty lines of a file, skipping lines
// that start with '#'.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrListNotFound, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return lines, nil
}

// ReadKey returns the first usable line of a key file.
func ReadKey(path string) (string, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("key file %s is empty", path)
	}
	return lines[0], nil
}

// Load builds the channel sets. The archive and check lists are required; a
// missing keyword list is logged and treated as empty.
func Load(paths Paths) (domain.ChannelSets, error) {
	archive, err := ReadLines(paths.Archive)
	if err != nil {
		return domain.ChannelSets{}, fmt.Errorf("archive list: %w", err)
	}
	check, err := ReadLines(paths.Check)
	if err != nil {
		return domain.ChannelSets{}, fmt.Errorf("check list: %w", err)
	}

	var keywords []string
	if paths.Keywords != "" {
		keywords, err = ReadLines(paths.Keywords)
		if err != nil {
			slog.Error("Failed to read keyword list, continuing without keywords",
				"path", paths.Keywords, "error", err)
			keywords = nil
		}
	}

	return domain.NewChannelSets(archive, check, keywords), nil
}
