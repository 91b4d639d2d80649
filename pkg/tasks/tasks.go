package tasks

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"steamreviews/pkg/logger"
	"steamreviews/pkg/models"
	"steamreviews/pkg/storage"
)

// LoadIDs reads an app id list from path.
func LoadIDs(path string, log logger.Logger) ([]uint32, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open task list: %w", err)
	}
	defer file.Close()

	ids, err := ParseIDs(file)
	if err != nil {
		return nil, fmt.Errorf("task list %s: %w", path, err)
	}

	if log != nil {
		log.InfoWithFields("task list loaded", map[string]interface{}{
			"path":  path,
			"tasks": len(ids),
		})
	}
	return ids, nil
}

// ParseIDs reads one app id per line. Blank lines and lines starting with
// # are skipped, a non-numeric first line is taken as a header, and only
// the first comma separated field of a line is read. Repeated ids keep
// their first position.
func ParseIDs(r io.Reader) ([]uint32, error) {
	var ids []uint32
	seen := make(map[uint32]bool)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	first := true
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.IndexByte(line, ','); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}

		id, err := parseID(line)
		if err != nil {
			if first {
				first = false
				continue
			}
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		first = false

		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read task list: %w", err)
	}

	return ids, nil
}

// parseID accepts plain integers and integral floats such as 4.4e+02,
// which older unfinished lists contain.
func parseID(s string) (uint32, error) {
	if id, err := strconv.ParseUint(s, 10, 32); err == nil {
		return uint32(id), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f > math.MaxUint32 || f != math.Trunc(f) {
		return 0, fmt.Errorf("invalid app id %q", s)
	}
	return uint32(f), nil
}

// Build turns ids into crawl tasks sharing one start date and threshold.
func Build(ids []uint32, startDate string, threshold int) []models.Task {
	out := make([]models.Task, len(ids))
	for i, id := range ids {
		out[i] = models.Task{AppID: id, StartDate: startDate, Threshold: threshold}
	}
	return out
}

// UnfinishedSet is the ordered set of app ids not yet persisted. It is a
// value: Remove returns a new set and leaves the receiver untouched.
type UnfinishedSet struct {
	ids []uint32
}

// NewUnfinishedSet creates a set holding every task id in order
func NewUnfinishedSet(tasks []models.Task) UnfinishedSet {
	ids := make([]uint32, 0, len(tasks))
	seen := make(map[uint32]bool, len(tasks))
	for _, t := range tasks {
		if seen[t.AppID] {
			continue
		}
		seen[t.AppID] = true
		ids = append(ids, t.AppID)
	}
	return UnfinishedSet{ids: ids}
}

// Remove returns the set without id
func (s UnfinishedSet) Remove(id uint32) UnfinishedSet {
	out := make([]uint32, 0, len(s.ids))
	for _, v := range s.ids {
		if v != id {
			out = append(out, v)
		}
	}
	return UnfinishedSet{ids: out}
}

// Contains reports whether id is still unfinished
func (s UnfinishedSet) Contains(id uint32) bool {
	for _, v := range s.ids {
		if v == id {
			return true
		}
	}
	return false
}

// IDs returns a copy of the ids in task order
func (s UnfinishedSet) IDs() []uint32 {
	out := make([]uint32, len(s.ids))
	copy(out, s.ids)
	return out
}

// Len returns the number of unfinished ids
func (s UnfinishedSet) Len() int {
	return len(s.ids)
}

// Save writes one id per line to path, replacing the file atomically.
func (s UnfinishedSet) Save(path string) error {
	var b strings.Builder
	for _, id := range s.ids {
		b.WriteString(strconv.FormatUint(uint64(id), 10))
		b.WriteByte('\n')
	}
	if err := storage.WriteFileAtomic(path, []byte(b.String())); err != nil {
		return fmt.Errorf("failed to save unfinished list: %w", err)
	}
	return nil
}
