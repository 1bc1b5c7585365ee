package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mikey/spam-stream/internal/core"
	"go.uber.org/zap"
)

// columnAliases maps accepted header names onto record fields
var columnAliases = map[string]string{
	"sender":  "sender",
	"from":    "sender",
	"subject": "subject",
	"body":    "body",
	"message": "body",
	"label":   "label",
}

var requiredColumns = []string{"sender", "subject", "body", "label"}

// CSVLoader reads message records from a CSV file with a header row
type CSVLoader struct {
	path   string
	limit  int
	logger *zap.Logger
}

// NewCSVLoader creates a loader for the CSV file at path. A positive limit caps the record count.
func NewCSVLoader(path string, limit int, logger *zap.Logger) *CSVLoader {
	return &CSVLoader{
		path:   path,
		limit:  limit,
		logger: logger,
	}
}

// Source returns the file path
func (l *CSVLoader) Source() string {
	return l.path
}

// Load reads and parses the whole file
func (l *CSVLoader) Load(ctx context.Context) ([]core.MessageRecord, error) {
	file, err := os.Open(l.path)
	if err != nil {
		return nil, &core.LoaderError{Source: l.path, Err: err}
	}
	defer file.Close()

	records, err := ReadCSV(ctx, file, l.limit)
	if err != nil {
		var loadErr *core.LoaderError
		if errors.As(err, &loadErr) {
			loadErr.Source = l.path
			return nil, loadErr
		}
		return nil, &core.LoaderError{Source: l.path, Err: err}
	}

	l.logger.Info("Loaded dataset", zap.String("path", l.path), zap.Int("records", len(records)))
	return records, nil
}

// ReadCSV parses message records from r
func ReadCSV(ctx context.Context, r io.Reader, limit int) ([]core.MessageRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, &core.LoaderError{Source: "csv", Err: errors.New("missing header row")}
		}
		return nil, &core.LoaderError{Source: "csv", Err: fmt.Errorf("failed to read header: %w", err)}
	}

	columns, err := mapColumns(header)
	if err != nil {
		return nil, &core.LoaderError{Source: "csv", Err: err}
	}

	var records []core.MessageRecord
	for row := 1; limit <= 0 || len(records) < limit; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &core.LoaderError{Source: "csv", Row: row, Err: err}
		}

		record, err := toRecord(fields, columns)
		if err != nil {
			return nil, &core.LoaderError{Source: "csv", Row: row, Err: err}
		}
		records = append(records, record)
	}

	return records, nil
}

func mapColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int)
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		field, ok := columnAliases[key]
		if !ok {
			continue
		}
		if _, seen := columns[field]; !seen {
			columns[field] = i
		}
	}

	var missing []string
	for _, field := range requiredColumns {
		if _, ok := columns[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return columns, nil
}

func toRecord(fields []string, columns map[string]int) (core.MessageRecord, error) {
	get := func(field string) (string, error) {
		i := columns[field]
		if i >= len(fields) {
			return "", fmt.Errorf("column %q missing in row", field)
		}
		return fields[i], nil
	}

	values := make(map[string]string, len(requiredColumns))
	for _, field := range requiredColumns {
		v, err := get(field)
		if err != nil {
			return core.MessageRecord{}, err
		}
		values[field] = v
	}

	label, err := core.ParseLabel(values["label"])
	if err != nil {
		return core.MessageRecord{}, err
	}

	return core.MessageRecord{
		Sender:  values["sender"],
		Subject: values["subject"],
		Body:    values["body"],
		Label:   label,
	}, nil
}
