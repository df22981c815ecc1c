// Package applier implements the Round-Based Applier (spec §4.5): it
// executes an ordered list of statements against a single live
// connection, retrying statements whose errors look like ordering
// problems across rounds, skipping ones the environment can't support,
// and finishing with a function/procedure body revalidation pass.
//
// Deliberately untransactional: CREATE INDEX CONCURRENTLY and several
// extension/subscription operations cannot run inside a transaction
// block, so the round-based retry loop is the only recovery mechanism —
// there is no wrapping BEGIN/COMMIT to roll back to.
package applier

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stokaro/ptahdiff/applier/errclass"
	"github.com/stokaro/ptahdiff/config"
)

// Statement is one apply-input entry: spec §6's (id, sql, statement_class?)
// tuple.
type Statement struct {
	ID             string
	SQL            string
	StatementClass string
}

// Status is the overall outcome of an Apply run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusStuck   Status = "stuck"
	StatusError   Status = "error"
)

// StatementError pairs a statement with the error it last produced.
type StatementError struct {
	ID  string
	SQL string
	Err string
}

// RoundCounter records what happened in one pass over the pending list.
type RoundCounter struct {
	Round   int
	Applied int
	Skipped int
	Retried int
}

// Result is the structured outcome spec §6 requires: overall status,
// totals, per-round counters, and every category of failure.
type Result struct {
	Status Status

	Rounds       int
	TotalApplied int
	TotalSkipped int

	RoundCounters []RoundCounter

	HardFailures     []StatementError
	StuckStatements  []StatementError
	ValidationErrors []StatementError
}

const (
	classCreateFunction  = "CREATE_FUNCTION"
	classCreateProcedure = "CREATE_PROCEDURE"
)

// ClassOf returns the statement_class tag (spec §6) a caller assembling
// Statements from raw SQL text should attach so the round-based
// applier knows which statements to remember for the final validation
// pass. Statements outside CREATE FUNCTION/PROCEDURE get "".
func ClassOf(sqlText string) string {
	trimmed := strings.TrimLeft(sqlText, " \t\n")
	upper := strings.ToUpper(trimmed)
	switch {
	case strings.HasPrefix(upper, "CREATE FUNCTION"):
		return classCreateFunction
	case strings.HasPrefix(upper, "CREATE PROCEDURE"):
		return classCreateProcedure
	default:
		return ""
	}
}

// Applier runs the round-based apply loop against a live connection.
// The zero value is usable; New and WithLogger exist so callers can
// attach a non-default logger the way migrator.Migrator does.
type Applier struct {
	logger *slog.Logger
}

// New returns an Applier logging to slog.Default().
func New() *Applier {
	return &Applier{logger: slog.Default()}
}

// WithLogger returns a copy of a using l for structured logging.
func (a *Applier) WithLogger(l *slog.Logger) *Applier {
	tmp := *a
	tmp.logger = l
	return &tmp
}

// Apply acquires a single connection from db for the whole run and
// executes statements in order, across rounds, per spec §4.5's
// algorithm. The connection is always released before Apply returns,
// on every exit path including context cancellation.
func Apply(ctx context.Context, db *sql.DB, statements []Statement, opts *config.ApplyOptions) (*Result, error) {
	return New().Apply(ctx, db, statements, opts)
}

// Apply runs statements against db, logging each round's size and
// outcome counters through a's logger.
func (a *Applier) Apply(ctx context.Context, db *sql.DB, statements []Statement, opts *config.ApplyOptions) (*Result, error) {
	if opts == nil {
		opts = config.DefaultApplyOptions()
	}
	logger := a.logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Close()

	if opts.DisableFunctionBodyChecksDuringApply {
		if _, err := conn.ExecContext(ctx, "SET check_function_bodies = off"); err != nil {
			return nil, fmt.Errorf("disabling function body checks: %w", err)
		}
	}

	result := &Result{}
	pending := statements
	lastErrors := make(map[string]error)
	var remembered []Statement

	logger.Info("apply starting", slog.Int("statements", len(statements)), slog.Int("max_rounds", opts.MaxRounds))

	for round := 1; ; round++ {
		if err := ctx.Err(); err != nil {
			result.Status = StatusError
			return result, err
		}
		if round > opts.MaxRounds {
			result.Status = StatusStuck
			result.StuckStatements = stuckFrom(pending, lastErrors)
			logger.Info("apply stuck", slog.Int("round", round), slog.Int("pending", len(pending)))
			return result, nil
		}

		counter := RoundCounter{Round: round}
		var retry []Statement

		for _, st := range pending {
			if err := ctx.Err(); err != nil {
				result.Status = StatusError
				return result, err
			}

			_, execErr := conn.ExecContext(ctx, st.SQL)
			if execErr == nil {
				counter.Applied++
				result.TotalApplied++
				if st.StatementClass == classCreateFunction || st.StatementClass == classCreateProcedure {
					remembered = append(remembered, st)
				}
				delete(lastErrors, st.ID)
				continue
			}

			switch errclass.Classify(execErr) {
			case errclass.Dependency:
				retry = append(retry, st)
				lastErrors[st.ID] = execErr
				counter.Retried++
			case errclass.Environment:
				counter.Skipped++
				result.TotalSkipped++
				logger.Warn("statement skipped", slog.String("change", st.ID), slog.Int("round", round))
			default:
				result.HardFailures = append(result.HardFailures, StatementError{ID: st.ID, SQL: st.SQL, Err: execErr.Error()})
				logger.Info("statement hard failure", slog.String("change", st.ID), slog.Int("round", round))
			}
		}

		result.RoundCounters = append(result.RoundCounters, counter)
		result.Rounds = round

		logger.Info("round complete",
			slog.Int("round", round),
			slog.Int("applied", counter.Applied),
			slog.Int("retried", counter.Retried),
			slog.Int("skipped", counter.Skipped),
		)

		if len(retry) == 0 {
			pending = nil
			break
		}
		if counter.Applied == 0 {
			result.Status = StatusStuck
			result.StuckStatements = stuckFrom(retry, lastErrors)
			logger.Info("apply stuck", slog.Int("round", round), slog.Int("pending", len(retry)))
			return result, nil
		}
		pending = retry
	}

	if opts.RunValidationPass {
		if verr := runValidation(ctx, conn, remembered, result, logger); verr != nil {
			return result, verr
		}
	}

	if len(result.HardFailures) == 0 && len(result.ValidationErrors) == 0 {
		result.Status = StatusSuccess
	} else {
		result.Status = StatusError
	}
	logger.Info("apply finished",
		slog.String("status", string(result.Status)),
		slog.Int("rounds", result.Rounds),
		slog.Int("applied", result.TotalApplied),
	)
	return result, nil
}

func runValidation(ctx context.Context, conn *sql.Conn, remembered []Statement, result *Result, logger *slog.Logger) error {
	if _, err := conn.ExecContext(ctx, "SET check_function_bodies = on"); err != nil {
		return fmt.Errorf("enabling function body checks for validation: %w", err)
	}
	for _, st := range remembered {
		if err := ctx.Err(); err != nil {
			return err
		}
		rewritten := asCreateOrReplace(st.SQL)
		if _, err := conn.ExecContext(ctx, rewritten); err != nil {
			result.ValidationErrors = append(result.ValidationErrors, StatementError{ID: st.ID, SQL: rewritten, Err: err.Error()})
			logger.Info("validation failed", slog.String("change", st.ID))
		}
	}
	return nil
}

// asCreateOrReplace rewrites a CREATE FUNCTION/CREATE PROCEDURE
// statement to CREATE OR REPLACE so the validation pass can re-run it
// idempotently even though the object already exists from the main
// apply loop.
func asCreateOrReplace(sqlText string) string {
	trimmed := strings.TrimLeft(sqlText, " \t\n")
	upper := strings.ToUpper(trimmed)
	switch {
	case strings.HasPrefix(upper, "CREATE FUNCTION"):
		return "CREATE OR REPLACE FUNCTION" + trimmed[len("CREATE FUNCTION"):]
	case strings.HasPrefix(upper, "CREATE PROCEDURE"):
		return "CREATE OR REPLACE PROCEDURE" + trimmed[len("CREATE PROCEDURE"):]
	default:
		return sqlText
	}
}

func stuckFrom(pending []Statement, lastErrors map[string]error) []StatementError {
	out := make([]StatementError, 0, len(pending))
	for _, st := range pending {
		msg := ""
		if err, ok := lastErrors[st.ID]; ok {
			msg = err.Error()
		}
		out = append(out, StatementError{ID: st.ID, SQL: st.SQL, Err: msg})
	}
	return out
}
