// Package db opens and migrates the history database. SQLite is the
// default (a local file under the user's config directory); MySQL is
// available for shared deployments.
package db

import (
	"fmt"
	"os"
	"path/filepath"

	sqlmysql "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Drivers supported by the history store.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Options select and locate the database.
type Options struct {
	Driver string // sqlite (default) | mysql
	Path   string // sqlite file path
	DSN    string // mysql DSN
}

// Open connects to the configured database.
func Open(opts Options) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	switch opts.Driver {
	case "", DriverSQLite:
		path := opts.Path
		if path == "" {
			var err error
			path, err = DefaultSQLitePath()
			if err != nil {
				return nil, err
			}
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("db: create data dir: %w", err)
		}
		database, err := gorm.Open(sqlite.Open(path), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("db: open sqlite %s: %w", path, err)
		}
		return database, nil
	case DriverMySQL:
		if opts.DSN == "" {
			return nil, fmt.Errorf("db: mysql driver requires a dsn")
		}
		// Validate the DSN up front and force parseTime so CreatedAt
		// round-trips as time.Time.
		dsnCfg, err := sqlmysql.ParseDSN(opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("db: invalid mysql dsn: %w", err)
		}
		dsnCfg.ParseTime = true
		database, err := gorm.Open(mysql.Open(dsnCfg.FormatDSN()), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("db: open mysql: %w", err)
		}
		return database, nil
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", opts.Driver)
	}
}

// DefaultSQLitePath returns ~/.config/kubesift/history.db.
func DefaultSQLitePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("db: resolve home dir: %w", err)
	}
	return filepath.Join(home, ".config", "kubesift", "history.db"), nil
}
