package applier_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	qt "github.com/frankban/quicktest"
	"github.com/lib/pq"

	"github.com/stokaro/ptahdiff/applier"
	"github.com/stokaro/ptahdiff/config"
)

func newMockDB(c *qt.C) (func(stmts []applier.Statement, opts *config.ApplyOptions) (*applier.Result, error), sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	c.Assert(err, qt.IsNil)
	c.Cleanup(func() { db.Close() })

	run := func(stmts []applier.Statement, opts *config.ApplyOptions) (*applier.Result, error) {
		return applier.New().Apply(context.Background(), db, stmts, opts)
	}
	return run, mock
}

func TestApply_RecoversOutOfOrderStatementsWithinTwoRounds(t *testing.T) {
	c := qt.New(t)
	run, mock := newMockDB(c)

	mock.ExpectExec("SET check_function_bodies = off").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE b (id int REFERENCES a(id));")).
		WillReturnError(&pq.Error{Code: "42P01", Message: "relation \"a\" does not exist"})
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE a (id int PRIMARY KEY);")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE b (id int REFERENCES a(id));")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("SET check_function_bodies = on").WillReturnResult(sqlmock.NewResult(0, 0))

	stmts := []applier.Statement{
		{ID: "b", SQL: "CREATE TABLE b (id int REFERENCES a(id));"},
		{ID: "a", SQL: "CREATE TABLE a (id int PRIMARY KEY);"},
	}

	result, err := run(stmts, nil)
	c.Assert(err, qt.IsNil)
	c.Assert(result.Status, qt.Equals, applier.StatusSuccess)
	c.Assert(result.Rounds, qt.Equals, 2)
	c.Assert(result.TotalApplied, qt.Equals, 2)
	c.Assert(result.StuckStatements, qt.HasLen, 0)
	c.Assert(mock.ExpectationsWereMet(), qt.IsNil)
}

func TestApply_StuckWhenMutuallyUnsatisfiable(t *testing.T) {
	c := qt.New(t)
	run, mock := newMockDB(c)

	mock.ExpectExec("SET check_function_bodies = off").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE VIEW v1 AS SELECT * FROM v2;")).
		WillReturnError(&pq.Error{Code: "42P01", Message: "relation \"v2\" does not exist"})
	mock.ExpectExec(regexp.QuoteMeta("CREATE VIEW v2 AS SELECT * FROM v1;")).
		WillReturnError(&pq.Error{Code: "42P01", Message: "relation \"v1\" does not exist"})

	stmts := []applier.Statement{
		{ID: "v1", SQL: "CREATE VIEW v1 AS SELECT * FROM v2;"},
		{ID: "v2", SQL: "CREATE VIEW v2 AS SELECT * FROM v1;"},
	}

	result, err := run(stmts, nil)
	c.Assert(err, qt.IsNil)
	c.Assert(result.Status, qt.Equals, applier.StatusStuck)
	c.Assert(result.StuckStatements, qt.HasLen, 2)
	c.Assert(mock.ExpectationsWereMet(), qt.IsNil)
}

func TestApply_SkipsEnvironmentLimitation(t *testing.T) {
	c := qt.New(t)
	run, mock := newMockDB(c)

	mock.ExpectExec("SET check_function_bodies = off").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE EVENT TRIGGER x ON ddl_command_start EXECUTE FUNCTION f();")).
		WillReturnError(&pq.Error{Code: "42501", Message: "must be superuser to create an event trigger"})
	mock.ExpectExec("SET check_function_bodies = on").WillReturnResult(sqlmock.NewResult(0, 0))

	stmts := []applier.Statement{
		{ID: "x", SQL: "CREATE EVENT TRIGGER x ON ddl_command_start EXECUTE FUNCTION f();", StatementClass: "CREATE_EVENT_TRIGGER"},
	}

	result, err := run(stmts, nil)
	c.Assert(err, qt.IsNil)
	c.Assert(result.Status, qt.Equals, applier.StatusSuccess)
	c.Assert(result.TotalSkipped, qt.Equals, 1)
	c.Assert(mock.ExpectationsWereMet(), qt.IsNil)
}

func TestApply_HardFailureMarksOverallError(t *testing.T) {
	c := qt.New(t)
	run, mock := newMockDB(c)

	mock.ExpectExec("SET check_function_bodies = off").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE broken (((;")).
		WillReturnError(&pq.Error{Code: "42601", Message: "syntax error"})
	mock.ExpectExec("SET check_function_bodies = on").WillReturnResult(sqlmock.NewResult(0, 0))

	stmts := []applier.Statement{
		{ID: "broken", SQL: "CREATE TABLE broken (((;"},
	}

	result, err := run(stmts, nil)
	c.Assert(err, qt.IsNil)
	c.Assert(result.Status, qt.Equals, applier.StatusError)
	c.Assert(result.HardFailures, qt.HasLen, 1)
	c.Assert(mock.ExpectationsWereMet(), qt.IsNil)
}

func TestApply_ValidationPassRewritesCreateAsCreateOrReplace(t *testing.T) {
	c := qt.New(t)
	run, mock := newMockDB(c)

	mock.ExpectExec("SET check_function_bodies = off").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE FUNCTION public.touch() RETURNS trigger AS $$ ... $$ LANGUAGE plpgsql;")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("SET check_function_bodies = on").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE OR REPLACE FUNCTION public.touch() RETURNS trigger AS $$ ... $$ LANGUAGE plpgsql;")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	stmts := []applier.Statement{
		{ID: "fn", SQL: "CREATE FUNCTION public.touch() RETURNS trigger AS $$ ... $$ LANGUAGE plpgsql;", StatementClass: "CREATE_FUNCTION"},
	}

	result, err := run(stmts, nil)
	c.Assert(err, qt.IsNil)
	c.Assert(result.Status, qt.Equals, applier.StatusSuccess)
	c.Assert(result.ValidationErrors, qt.HasLen, 0)
	c.Assert(mock.ExpectationsWereMet(), qt.IsNil)
}
