package storage

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"steamreviews/pkg/models"
)

// SeriesHeader is the header row of every per-app CSV file
var SeriesHeader = []string{"Date", "total_reviews", "total_positive", "total_negative", "review_score"}

// ReleaseHeader is the header row of the release year CSV
var ReleaseHeader = []string{"id", "year"}

// Manager handles series files in one output directory
type Manager struct {
	outputDir string
	saved     map[uint32]bool
	mu        sync.RWMutex
}

// NewManager creates a new storage manager
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	manager := &Manager{
		outputDir: outputDir,
		saved:     make(map[uint32]bool),
	}

	if err := manager.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}

	return manager, nil
}

// scanExistingFiles records app ids that already have a series file
func (m *Manager) scanExistingFiles() error {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".csv" {
			continue
		}
		id, err := strconv.ParseUint(strings.TrimSuffix(entry.Name(), ".csv"), 10, 32)
		if err != nil {
			continue
		}
		m.saved[uint32(id)] = true
	}

	return nil
}

// Path returns the series file of appID
func (m *Manager) Path(appID uint32) string {
	return filepath.Join(m.outputDir, fmt.Sprintf("%d.csv", appID))
}

// IsSaved reports whether a series file for appID exists
func (m *Manager) IsSaved(appID uint32) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saved[appID]
}

// SaveSeries writes the series to its CSV file, replacing any previous one.
// The file appears complete or not at all.
func (m *Manager) SaveSeries(series *models.Series) (string, error) {
	var buf bytes.Buffer
	if err := WriteSeries(&buf, series); err != nil {
		return "", err
	}

	path := m.Path(series.AppID)
	if err := WriteFileAtomic(path, buf.Bytes()); err != nil {
		return "", err
	}

	m.mu.Lock()
	m.saved[series.AppID] = true
	m.mu.Unlock()

	return path, nil
}

// LoadSeries reads the series file of appID back
func (m *Manager) LoadSeries(appID uint32) (*models.Series, error) {
	f, err := os.Open(m.Path(appID))
	if err != nil {
		return nil, fmt.Errorf("failed to open series: %w", err)
	}
	defer f.Close()

	return ReadSeries(f, appID)
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// GetSavedCount returns the number of series files present
func (m *Manager) GetSavedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.saved)
}

// WriteSeries encodes series as CSV, one row per point in stored order.
func WriteSeries(w io.Writer, series *models.Series) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(SeriesHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, p := range series.Points {
		row := []string{
			p.Date.Format(models.DateLayout),
			strconv.Itoa(p.Snapshot.TotalReviews),
			strconv.Itoa(p.Snapshot.TotalPositive),
			strconv.Itoa(p.Snapshot.TotalNegative),
			strconv.Itoa(p.Snapshot.ReviewScore),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ReadSeries decodes a CSV produced by WriteSeries. Dates are read as UTC
// midnight.
func ReadSeries(r io.Reader, appID uint32) (*models.Series, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(SeriesHeader)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if strings.Join(header, ",") != strings.Join(SeriesHeader, ",") {
		return nil, fmt.Errorf("unexpected csv header %q", strings.Join(header, ","))
	}

	series := models.NewSeries(appID)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		date, err := time.ParseInLocation(models.DateLayout, row[0], time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", row[0], err)
		}

		var values [4]int
		for i := range values {
			values[i], err = strconv.Atoi(row[i+1])
			if err != nil {
				return nil, fmt.Errorf("parse %s on %s: %w", SeriesHeader[i+1], row[0], err)
			}
		}

		series.Add(date, models.Snapshot{
			TotalReviews:  values[0],
			TotalPositive: values[1],
			TotalNegative: values[2],
			ReviewScore:   values[3],
		})
	}

	return series, nil
}

// WriteReleaseCSV writes release years as id,year rows.
func WriteReleaseCSV(path string, infos []models.ReleaseInfo) error {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(ReleaseHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, info := range infos {
		if err := writer.Write([]string{strconv.FormatUint(uint64(info.AppID), 10), info.Year}); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	return WriteFileAtomic(path, buf.Bytes())
}

// WriteFileAtomic writes data to a temporary file next to path and renames
// it into place.
func WriteFileAtomic(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	tempFile := path + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = out.Write(data)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write data: %w", err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}
