package loader

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/mikey/spam-stream/internal/core"
	"go.uber.org/zap"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// sqlLoader reads message records from a table with sender, subject, body and label columns
type sqlLoader struct {
	db     *sql.DB
	driver string
	source string
	query  string
	limit  int
	logger *zap.Logger
}

func newSQLLoader(db *sql.DB, driver, source, table, orderBy string, limit int, logger *zap.Logger) (*sqlLoader, error) {
	if !identifierPattern.MatchString(table) {
		return nil, &core.ConfigurationError{Field: "dataset.table", Value: table, Reason: "must be a plain SQL identifier"}
	}

	query := fmt.Sprintf("SELECT sender, subject, body, label FROM %s ORDER BY %s", table, orderBy)
	return &sqlLoader{
		db:     db,
		driver: driver,
		source: source,
		query:  query,
		limit:  limit,
		logger: logger,
	}, nil
}

// Source returns a description of the table
func (l *sqlLoader) Source() string {
	return l.source
}

// Load runs the dataset query and converts rows into records
func (l *sqlLoader) Load(ctx context.Context) ([]core.MessageRecord, error) {
	query := l.query
	args := []interface{}{}
	if l.limit > 0 {
		query += " LIMIT ?"
		args = append(args, l.limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &core.LoaderError{Source: l.source, Err: fmt.Errorf("failed to query dataset: %w", err)}
	}
	defer rows.Close()

	var records []core.MessageRecord
	row := 0
	for rows.Next() {
		row++
		var sender, subject, body, rawLabel sql.NullString
		if err := rows.Scan(&sender, &subject, &body, &rawLabel); err != nil {
			return nil, &core.LoaderError{Source: l.source, Row: row, Err: err}
		}

		label, err := core.ParseLabel(rawLabel.String)
		if err != nil {
			return nil, &core.LoaderError{Source: l.source, Row: row, Err: err}
		}

		records = append(records, core.MessageRecord{
			Sender:  sender.String,
			Subject: subject.String,
			Body:    body.String,
			Label:   label,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &core.LoaderError{Source: l.source, Err: err}
	}

	l.logger.Info("Loaded dataset",
		zap.String("driver", l.driver),
		zap.String("source", l.source),
		zap.Int("records", len(records)))
	return records, nil
}

// Close closes the database connection
func (l *sqlLoader) Close() error {
	return l.db.Close()
}
