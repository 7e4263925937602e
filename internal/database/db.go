package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// DSN builds the MySQL connection string. parseTime stays off: the
// repositories read and write DATETIME columns as "2006-01-02 15:04:05" UTC
// strings, and with parseTime the driver would hand back time.Time values
// that database/sql stringifies as RFC3339 instead.
func DSN(user, pass, host, port, name string) string {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4", auth, host, port, name)
}

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	db, err := sql.Open("mysql", DSN(user, pass, host, port, name))
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}
