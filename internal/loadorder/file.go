package loadorder

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/modkeep/modkeep/internal/filesystem"
)

// Persistence is the durable textual representation of the load order.
// WriteOrder must have atomic replace semantics.
type Persistence interface {
	ReadOrder() ([]string, error)
	WriteOrder(lines []string) error
}

// File persists the load order to plugins.txt, one plugin per line.
// Lines prefixed with '#' are inert: the plugin is disabled but its slot
// is kept so other rows do not shift.
type File struct {
	path string
}

// NewFile creates a Persistence over the given plugins.txt path.
func NewFile(path string) *File {
	return &File{path: path}
}

// ReadOrder returns the non-empty lines of plugins.txt, stripped.
func (f *File) ReadOrder() ([]string, error) {
	file, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read load order: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read load order: %w", err)
	}
	return lines, nil
}

// WriteOrder rewrites plugins.txt atomically (write-temp-then-replace).
func (f *File) WriteOrder(lines []string) error {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := filesystem.WriteFileAtomic(f.path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write load order: %w", err)
	}
	return nil
}
