package files

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/JoeShih716/go-devweek-bank/internal/app/etl/domain"
)

// Artifact file names inside the output directory.
const (
	UsersFile  = "users_processed.json"
	ReportFile = "users_report.csv"
)

var inputHeader = []string{"UserID", "name", "email"}

// Source reads input rows from a CSV file with a UserID,name,email header.
type Source struct {
	path string
	log  zerolog.Logger
}

func NewSource(path string, log zerolog.Logger) *Source {
	return &Source{path: path, log: log}
}

// ReadRows creates the file with the sample rows first when it does not exist.
func (s *Source) ReadRows(_ context.Context) ([]domain.InputRow, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.log.Warn().Str("path", s.path).Msg("input not found, creating sample file")
		if err := WriteSample(s.path); err != nil {
			return nil, err
		}
		f, err = os.Open(s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	return parseRows(f)
}

func parseRows(r io.Reader) ([]domain.InputRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := map[string]int{}
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	idCol, ok := idx["userid"]
	if !ok {
		return nil, fmt.Errorf("input has no UserID column")
	}
	field := func(rec []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []domain.InputRow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		if idCol >= len(rec) || strings.TrimSpace(rec[idCol]) == "" {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(rec[idCol]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad UserID %q: %w", line, rec[idCol], err)
		}
		rows = append(rows, domain.InputRow{
			UserID: id,
			Name:   field(rec, "name"),
			Email:  field(rec, "email"),
		})
	}
	return rows, nil
}

// WriteSample writes domain.SampleRows to path, creating parent directories.
func WriteSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create input dir: %w", err)
	}
	records := [][]string{inputHeader}
	for _, r := range domain.SampleRows() {
		records = append(records, []string{strconv.FormatInt(r.UserID, 10), r.Name, r.Email})
	}
	return writeCSV(path, records)
}

// Writer stores artifacts in a directory.
type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

func (w *Writer) WriteUsers(users []*domain.User) (string, error) {
	if users == nil {
		users = []*domain.User{}
	}
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode users: %w", err)
	}
	path, err := w.path(UsersFile)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func (w *Writer) WriteReport(rows []domain.ReportRow) (string, error) {
	records := [][]string{domain.ReportHeader}
	for _, r := range rows {
		records = append(records, r.Record())
	}
	path, err := w.path(ReportFile)
	if err != nil {
		return "", err
	}
	if err := writeCSV(path, records); err != nil {
		return "", err
	}
	return path, nil
}

func (w *Writer) path(name string) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	return filepath.Join(w.dir, name), nil
}

func writeCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	cw := csv.NewWriter(f)
	if err := cw.WriteAll(records); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
