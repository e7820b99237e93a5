package retry

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQLErrorClassifier implements songline.ErrorClassifier for
// PostgreSQL and network errors.
//
// Transient SQLSTATE classes, per
// https://www.postgresql.org/docs/current/errcodes-appendix.html:
//   - 08  connection exception
//   - 40001/40P01  serialization failure, deadlock
//   - 53  insufficient resources
//   - 55P03  lock not available
//   - 57  operator intervention (shutdown, cannot connect now)
type PostgreSQLErrorClassifier struct{}

// NewPostgreSQLErrorClassifier creates a new PostgreSQL error classifier.
func NewPostgreSQLErrorClassifier() *PostgreSQLErrorClassifier {
	return &PostgreSQLErrorClassifier{}
}

// IsTransient determines if an error is temporary and retryable.
func (c *PostgreSQLErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return isTransientSQLState(pgErr.Code)
	}

	return c.isNetworkError(err) || c.isConnectionError(err)
}

func isTransientSQLState(code string) bool {
	switch {
	case strings.HasPrefix(code, "08"): // connection exception
		return true
	case strings.HasPrefix(code, "53"): // insufficient resources
		return true
	case strings.HasPrefix(code, "57"): // operator intervention
		return true
	}

	switch code {
	case "40001", "40P01": // serialization failure, deadlock detected
		return true
	case "55P03": // lock not available
		return true
	}

	return false
}

// isNetworkError checks for transient network-level errors.
func (c *PostgreSQLErrorClassifier) isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() || dnsErr.Timeout()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Temporary() || opErr.Timeout() {
			return true
		}
		if opErr.Err != nil {
			switch {
			case errors.Is(opErr.Err, syscall.ECONNREFUSED),
				errors.Is(opErr.Err, syscall.ECONNRESET),
				errors.Is(opErr.Err, syscall.ENETUNREACH),
				errors.Is(opErr.Err, syscall.EHOSTUNREACH):
				return true
			}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

// isConnectionError catches connection failures that surface only as strings
// (pgx wraps some dial errors before the net error types are reachable).
func (c *PostgreSQLErrorClassifier) isConnectionError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"i/o timeout",
		"server closed the connection",
		"the database system is starting up",
		"the database system is shutting down",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
