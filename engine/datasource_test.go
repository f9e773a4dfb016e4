package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDriverForMysql(t *testing.T) {
	driver, dsn, err := driverFor("mysql://127.0.0.1:3306/db")
	require.NoError(t, err)
	require.Equal(t, "mysql", driver)
	require.Equal(t, "127.0.0.1:3306/db", dsn)
}

func TestDriverForSqlite(t *testing.T) {
	driver, dsn, err := driverFor("sqlite:///tmp/test.db")
	require.NoError(t, err)
	require.Equal(t, "sqlite3", driver)
	require.Equal(t, "/tmp/test.db", dsn)
}

func TestDriverForUnsupportedScheme(t *testing.T) {
	_, _, err := driverFor("mongodb://host/db")
	require.Error(t, err)
}

func TestDriverForMalformedURL(t *testing.T) {
	_, _, err := driverFor("not-a-url")
	require.Error(t, err)
}

func TestInjectMysqlAuthSkipsWhenAlreadyPresent(t *testing.T) {
	dsn := injectMysqlAuth("user:pass@tcp(host:3306)/db", "other", "x")
	require.Equal(t, "user:pass@tcp(host:3306)/db", dsn)
}

func TestInjectMysqlAuth(t *testing.T) {
	dsn := injectMysqlAuth("tcp(host:3306)/db", "user", "pass")
	require.Equal(t, "user:pass@tcp(host:3306)/db", dsn)
}

// S6: a commit error whose text contains "deadlock" classifies as
// AbortDeadlock, not AbortConflict.
func TestIsRollbackDeadlockClassification(t *testing.T) {
	isRollback, isDeadlock := IsRollback(errors.New("Error 1213: Deadlock found when trying to get lock"))
	require.True(t, isRollback)
	require.True(t, isDeadlock)
}

func TestIsRollbackConflictClassification(t *testing.T) {
	isRollback, isDeadlock := IsRollback(errors.New("ERROR: could not serialize access due to concurrent update"))
	require.True(t, isRollback)
	require.False(t, isDeadlock)
}

func TestIsRollbackNilError(t *testing.T) {
	isRollback, isDeadlock := IsRollback(nil)
	require.False(t, isRollback)
	require.False(t, isDeadlock)
}

func TestIsTransientClassification(t *testing.T) {
	require.True(t, IsTransient(errors.New("driver: bad connection")))
	require.False(t, IsTransient(errors.New("syntax error near SELECT")))
}

func TestIsConnectionFailureClassification(t *testing.T) {
	require.True(t, IsConnectionFailure(errors.New("dial tcp: connection refused")))
	require.False(t, IsConnectionFailure(errors.New("syntax error near SELECT")))
}

func TestAppendExtraParamsNoneLeavesDSNUnchanged(t *testing.T) {
	require.Equal(t, "host/db", appendExtraParams("postgres", "host/db", nil))
}

func TestAppendExtraParamsAppendsQuestionMark(t *testing.T) {
	got := appendExtraParams("postgres", "host/db", map[string]string{"sslmode": "disable"})
	require.Equal(t, "host/db?sslmode=disable", got)
}

func TestAppendExtraParamsJoinsOnExistingQuery(t *testing.T) {
	got := appendExtraParams("postgres", "host/db?x=1", map[string]string{"sslmode": "disable"})
	require.Equal(t, "host/db?x=1&sslmode=disable", got)
}
