// Package engine executes parsed statements against an internal/catalog
// Database and exposes MockDatabase: Execute, ExecuteOne and ExecuteLazy
// over a single in-memory snapshot that is replaced atomically after each
// statement.
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	pg_query "github.com/pganalyze/pg_query_go/v6"
	"go.uber.org/zap"

	"github.com/zoravur/pgmock/internal/catalog"
	"github.com/zoravur/pgmock/internal/logutil"
	"github.com/zoravur/pgmock/internal/pgerror"
)

// MockDatabase holds exactly one current Database snapshot and serializes
// access to it. Statement execution itself is intentionally
// single-threaded; the mutex here exists only so concurrent API/WS
// callers (internal/api) don't race on the snapshot swap itself.
type MockDatabase struct {
	mu     sync.Mutex
	db     catalog.Database
	logger *zap.Logger
}

func NewMockDatabase(logger *zap.Logger) *MockDatabase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MockDatabase{db: catalog.NewDatabase(), logger: logger}
}

// LazyResult is one frame of an execute_lazy stream: either a completed
// statement's ResultSet, or the error that stopped the stream.
type LazyResult struct {
	Result *ResultSet
	Err    error
}

func parse(sql string) ([]*pg_query.RawStmt, error) {
	result, err := pg_query.Parse(sql)
	if err != nil {
		return nil, pgerror.SyntaxError("%s", err.Error())
	}
	return result.GetStmts(), nil
}

// Execute runs every statement in sql in order against one snapshot,
// returning one ResultSet per statement. It stops and returns the error
// on the first failing statement; statements before it have already
// taken effect — there is no transaction wrapping.
func (m *MockDatabase) Execute(sql string) ([]*ResultSet, error) {
	correlationID := uuid.New()
	start := time.Now()

	stmts, err := parse(sql)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	results := make([]*ResultSet, 0, len(stmts))
	for _, raw := range stmts {
		rs, err := m.executeStmt(raw.GetStmt())
		if err != nil {
			m.logger.Debug("statement failed",
				zap.String("correlation_id", correlationID.String()),
				logutil.Values(zap.Error(err)),
			)
			return nil, err
		}
		results = append(results, rs)
	}

	m.logger.Debug("execute",
		zap.String("correlation_id", correlationID.String()),
		logutil.Values(
			zap.Int("statements", len(stmts)),
			zap.Duration("elapsed", time.Since(start)),
		),
	)
	return results, nil
}

// ExecuteOne requires sql to contain exactly one statement and runs it.
func (m *MockDatabase) ExecuteOne(sql string) (*ResultSet, error) {
	stmts, err := parse(sql)
	if err != nil {
		return nil, err
	}
	if len(stmts) != 1 {
		return nil, pgerror.SyntaxError("execute_one requires exactly one statement, got %d", len(stmts))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.executeStmt(stmts[0].GetStmt())
}

// ExecuteLazy parses sql up front, then executes its statements one at a
// time, sending each ResultSet as it completes. The channel closes after
// the last statement or the first error (whose LazyResult.Err is set).
// internal/protocol.HandleMessage drains this to stream frames over a
// websocket.
func (m *MockDatabase) ExecuteLazy(sql string) (<-chan LazyResult, error) {
	stmts, err := parse(sql)
	if err != nil {
		return nil, err
	}

	out := make(chan LazyResult)
	go func() {
		defer close(out)
		m.mu.Lock()
		defer m.mu.Unlock()
		for _, raw := range stmts {
			rs, err := m.executeStmt(raw.GetStmt())
			if err != nil {
				out <- LazyResult{Err: err}
				return
			}
			out <- LazyResult{Result: rs}
		}
	}()
	return out, nil
}

// Snapshot returns the current catalog state, used by internal/api's
// catalog endpoint and by cmd/pgmock-seed to print the seeded catalog.
func (m *MockDatabase) Snapshot() catalog.SnapshotView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.Snapshot()
}

// executeStmt dispatches one parsed statement against the current
// snapshot, replacing it atomically on success. Caller must hold m.mu.
func (m *MockDatabase) executeStmt(node *pg_query.Node) (*ResultSet, error) {
	switch {
	case node.GetSelectStmt() != nil:
		return ExecuteSelect(&m.db, node.GetSelectStmt())

	case node.GetCreateStmt() != nil:
		newDB, rs, err := ExecuteCreate(&m.db, node.GetCreateStmt())
		if err != nil {
			return nil, err
		}
		m.db = newDB
		return rs, nil

	case node.GetInsertStmt() != nil:
		newDB, rs, err := ExecuteInsert(&m.db, node.GetInsertStmt())
		if err != nil {
			return nil, err
		}
		m.db = newDB
		return rs, nil

	default:
		return nil, pgerror.NotImplemented(fmt.Sprintf("%T", node.Node))
	}
}
