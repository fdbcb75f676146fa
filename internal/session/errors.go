package session

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// Execution failures split two ways. Semantic failures are the server telling
// us the query itself is wrong; those feed the correction loop. Infrastructure
// failures mean the environment broke; retrying the same loop cannot help and
// the session aborts instead.

// Timeout kinds, so callers can tell which stage's budget ran out.
var (
	ErrGenerationTimeout = errors.New("generation timed out")
	ErrExecutionTimeout  = errors.New("statement execution timed out")
)

// mysqlInfraErrors lists server error codes that signal environment trouble
// rather than a flaw in the query.
// 1040 is too many connections.
// 1053 is server shutdown in progress.
// 1205 is a lock wait timeout.
// 1317 is query execution interrupted.
// 3024 is the per-query max execution time being exceeded.
var mysqlInfraErrors = map[uint16]struct{}{
	1040: {},
	1053: {},
	1205: {},
	1317: {},
	3024: {},
}

// isSemanticExecError reports whether err is a server-side verdict on the
// query that the model can plausibly repair.
func isSemanticExecError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if !errors.As(err, &mysqlErr) {
		return false
	}
	_, infra := mysqlInfraErrors[mysqlErr.Number]
	return !infra
}

// isInfraError reports whether err means the environment failed: timeouts,
// dead connections, unreachable or overloaded servers.
func isInfraError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	if errors.Is(err, ErrGenerationTimeout) || errors.Is(err, ErrExecutionTimeout) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		_, infra := mysqlInfraErrors[mysqlErr.Number]
		return infra
	}
	return false
}

// execFeedback renders a semantic execution error as correction feedback.
// The server error code is kept; it is often the most useful part.
func execFeedback(err error) string {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return fmt.Sprintf("execution failed with error %d: %s", mysqlErr.Number, mysqlErr.Message)
	}
	return "execution failed: " + firstLine(err.Error())
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
