package loader

import (
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// MySQLLoader reads message records from a MySQL table with an id column
type MySQLLoader struct {
	*sqlLoader
}

// NewMySQLLoader connects to the database described by dsn
func NewMySQLLoader(dsn, table string, limit int, logger *zap.Logger) (*MySQLLoader, error) {
	parsed, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid MySQL DSN: %w", err)
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	source := fmt.Sprintf("mysql:%s/%s", parsed.DBName, table)
	base, err := newSQLLoader(db, "mysql", source, table, "id", limit, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &MySQLLoader{sqlLoader: base}, nil
}
