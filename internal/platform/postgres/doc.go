// Package postgres implements the internal/store interfaces on top of
// PostgreSQL. Each store accepts the DBTX query surface so the same
// implementation serves both pooled connections and open transactions,
// and every database error is translated into the store package's error
// vocabulary before it leaves this package. The schema itself ships as
// embedded goose migrations applied at startup.
package postgres
