// Package engine implements the worker pool, pacing-aware SQL workers, the
// monitor, and the supervisor that wires them together against a shared
// connection-pooled datasource.
package engine

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"sqldrive/config"
)

// DataSource wraps a *sql.DB, the shared connection pool all workers draw
// from, plus diagnostics the worker loop needs on failure.
type DataSource struct {
	db     *sql.DB
	nodeID string
}

// driverFor maps a URL scheme to the registered database/sql driver name.
// Unlike JDBC, database/sql has no single URL-based dispatch, so for mysql
// and sqlite the scheme is stripped and the remainder passed through as the
// driver's own DSN; postgres receives the full URL unchanged.
func driverFor(rawURL string) (driverName, dsn string, err error) {
	scheme, rest, ok := strings.Cut(rawURL, "://")
	if !ok {
		return "", "", fmt.Errorf("malformed url %q: expected scheme://...", rawURL)
	}
	switch strings.ToLower(scheme) {
	case "mysql":
		return "mysql", rest, nil
	case "postgres", "postgresql":
		return "postgres", rawURL, nil
	case "sqlite", "sqlite3":
		return "sqlite3", rest, nil
	default:
		return "", "", fmt.Errorf("unsupported database scheme %q", scheme)
	}
}

// Open constructs the shared datasource from the full property bag:
// url/user/password plus pool sizing derived from threads.
func Open(props config.Properties) (*DataSource, error) {
	rawURL := props.Get(config.URL)
	driverName, dsn, err := driverFor(rawURL)
	if err != nil {
		return nil, err
	}

	if driverName == "mysql" {
		dsn = injectMysqlAuth(dsn, props.Get(config.User), props.Get(config.Password))
	}
	dsn = appendExtraParams(driverName, dsn, extraProperties(props))

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening datasource: %w", err)
	}

	threads, _ := strconv.Atoi(props.GetDefault(config.Threads, "10"))
	db.SetMaxOpenConns(threads + 1)
	db.SetMaxIdleConns(threads + 1)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &DataSource{db: db, nodeID: rawURL}, nil
}

// injectMysqlAuth rewrites a bare "tcp(host:port)/db" mysql DSN to carry
// user:password, the way binding/mysql.go builds its DSN by hand.
func injectMysqlAuth(dsn, user, password string) string {
	if strings.Contains(dsn, "@") {
		return dsn // caller already embedded credentials in the URL
	}
	return fmt.Sprintf("%s:%s@%s", user, password, dsn)
}

// extraProperties returns the subset of props not named in config.Recognised
// - the ad hoc entries merged in via "-property name=value" -
// so they can be passed through to the driver as DSN query parameters
// (e.g. "-property sslmode=disable" for Postgres).
func extraProperties(props config.Properties) map[string]string {
	extra := make(map[string]string)
	for k, v := range props {
		if !config.Recognised[k] {
			extra[k] = v
		}
	}
	return extra
}

// appendExtraParams appends extra as a "&"-joined query string to dsn, in
// the form each supported driver accepts: MySQL and SQLite take a bare
// "?k=v&..." suffix on the DSN, Postgres accepts the same suffix on its
// connection URL.
func appendExtraParams(driverName, dsn string, extra map[string]string) string {
	if len(extra) == 0 {
		return dsn
	}
	var params []string
	for k, v := range extra {
		params = append(params, fmt.Sprintf("%s=%s", k, v))
	}
	joined := strings.Join(params, "&")

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + joined
}

// Close releases the pool.
func (d *DataSource) Close() error {
	return d.db.Close()
}

// NodeID reports the datasource URL, used as the node identifier in
// diagnostics. The node behind an individual pooled connection is not
// queried.
func (d *DataSource) NodeID() string {
	return d.nodeID
}

// IsTransient classifies a driver error as a transient connection loss
// worth a bare retry-next-transaction, versus a non-transient connection
// failure worth the linear-backoff retry path, by inspecting the error
// text for the phrases the supported drivers use for recoverable network
// conditions. database/sql does not expose a standardised
// transient-vs-non-transient distinction across drivers, so this is
// necessarily a text-based heuristic.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"broken pipe", "connection reset", "invalid connection", "driver: bad connection"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// IsConnectionFailure classifies err as a non-transient connection failure
// worth the bounded retry-with-backoff path rather than a bare SQL error.
func IsConnectionFailure(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection refused", "no such host", "network is unreachable", "i/o timeout", "server closed"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// IsRollback classifies err as a transaction-rollback condition (conflict
// or deadlock) rather than an outright connection or SQL failure, and
// reports whether the message indicates a deadlock specifically.
func IsRollback(err error) (isRollback, isDeadlock bool) {
	if err == nil {
		return false, false
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"deadlock", "40p01", "1213"} {
		if strings.Contains(msg, s) {
			return true, true
		}
	}
	for _, s := range []string{"could not serialize", "40001", "1205", "lock wait timeout"} {
		if strings.Contains(msg, s) {
			return true, false
		}
	}
	return false, false
}
