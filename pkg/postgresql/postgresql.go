package postgresql

import (
	"database/sql"
	stderrors "errors"
	"sync"

	"github.com/hirestore/hs-order/config"
	"github.com/lib/pq"
)

const uniqueViolation = pq.ErrorCode("23505")

var (
	db   *sql.DB
	once sync.Once
)

// GetDatabase returns the shared connection pool. Connecting is lazy, callers
// should Ping to surface configuration problems early.
func GetDatabase() *sql.DB {
	once.Do(func() {
		c := config.Get()

		conn, err := sql.Open("postgres", c.Postgres.DSN)
		if err != nil {
			panic(err)
		}

		conn.SetMaxOpenConns(c.Postgres.MaxOpenConns)
		conn.SetMaxIdleConns(c.Postgres.MaxIdleConns)
		conn.SetConnMaxLifetime(c.Postgres.ConnMaxLifetime)

		db = conn
	})

	return db
}

// IsUniqueViolation reports whether err was raised by a unique constraint.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}
