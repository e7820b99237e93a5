package services

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vvka-141/songline/pkg/songline"
)

// capturingLogger records formatted log lines for assertions.
type capturingLogger struct {
	verbose []string
	info    []string
	errors  []string
}

func (l *capturingLogger) Verbose(format string, args ...interface{}) {
	l.verbose = append(l.verbose, fmt.Sprintf(format, args...))
}

func (l *capturingLogger) Info(format string, args ...interface{}) {
	l.info = append(l.info, fmt.Sprintf(format, args...))
}

func (l *capturingLogger) Error(format string, args ...interface{}) {
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}

// mockDBManager scripts existence checks and records lifecycle calls.
type mockDBManager struct {
	exists     bool
	existsErr  error
	created    []string
	dropped    []string
	terminated []string
	createErr  error
	dropErr    error
}

func (m *mockDBManager) Exists(ctx context.Context, conn songline.DBConnection, dbName string) (bool, error) {
	return m.exists, m.existsErr
}

func (m *mockDBManager) Create(ctx context.Context, conn songline.DBConnection, dbName string) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, dbName)
	return nil
}

func (m *mockDBManager) Drop(ctx context.Context, conn songline.DBConnection, dbName string) error {
	if m.dropErr != nil {
		return m.dropErr
	}
	m.dropped = append(m.dropped, dbName)
	return nil
}

func (m *mockDBManager) TerminateConnections(ctx context.Context, conn songline.DBConnection, dbName string) error {
	m.terminated = append(m.terminated, dbName)
	return nil
}

// mockApprover returns a scripted approval decision.
type mockApprover struct {
	approve bool
	err     error
	called  bool
}

func (m *mockApprover) RequestApproval(ctx context.Context, dbName string) (bool, error) {
	m.called = true
	return m.approve, m.err
}

// stubScanner returns a fixed file list per root.
type stubScanner struct {
	files map[string][]string
	err   error
}

func (s *stubScanner) ScanJSONFiles(root string) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.files[root], nil
}

// stubExtractor counts processed files and optionally fails on one path.
type stubExtractor struct {
	processed []string
	failOn    string
}

func (e *stubExtractor) ProcessFile(ctx context.Context, path string) error {
	if path == e.failOn {
		return fmt.Errorf("%w: bad file %s", songline.ErrParse, path)
	}
	e.processed = append(e.processed, path)
	return nil
}

// recordingConn records executed SQL statements.
type recordingConn struct {
	sql []string
}

func (c *recordingConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.sql = append(c.sql, sql)
	return pgconn.CommandTag{}, nil
}

func (c *recordingConn) QueryRow(ctx context.Context, sql string, args ...any) songline.Row {
	panic("not used")
}

func (c *recordingConn) Acquire(ctx context.Context) (songline.PooledConnection, error) {
	panic("not used")
}

func connectorFactoryUnused(*songline.ConnectionConfig) (songline.Connector, error) {
	return nil, fmt.Errorf("connector should not be used in this test")
}
