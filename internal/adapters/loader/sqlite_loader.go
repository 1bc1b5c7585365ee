package loader

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteLoader reads message records from a SQLite table
type SQLiteLoader struct {
	*sqlLoader
}

// NewSQLiteLoader opens the database at dbPath. Records are returned in rowid order.
func NewSQLiteLoader(dbPath, table string, limit int, logger *zap.Logger) (*SQLiteLoader, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	base, err := newSQLLoader(db, "sqlite3", fmt.Sprintf("sqlite:%s/%s", dbPath, table), table, "rowid", limit, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteLoader{sqlLoader: base}, nil
}
