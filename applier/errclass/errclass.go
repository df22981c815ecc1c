// Package errclass classifies PostgreSQL SQLSTATE codes the round-based
// applier (package applier) needs to tell apart: dependency errors worth
// retrying next round, environment/capability limitations worth
// skipping, and everything else, which is hard.
package errclass

import (
	"errors"

	"github.com/lib/pq"
)

// Class is the outcome of classifying one statement execution error.
type Class string

const (
	// Dependency marks an error caused by an object this statement needs
	// not yet existing — a later round, after other statements run, may
	// succeed (spec §4.5 step 2).
	Dependency Class = "dependency"

	// Environment marks a recognized capability limitation of the
	// connected environment (missing extension, non-superuser connection,
	// unsupported feature, ...): permanently skipped with a warning, not
	// retried.
	Environment Class = "environment"

	// Hard marks any other error: recorded as a hard failure, does not
	// abort the run, but prevents overall success.
	Hard Class = "hard"
)

// dependencyCodes is the retryable set spec §4.5 names explicitly:
// undefined_table, undefined_column, undefined_object, undefined_function,
// invalid_schema_name — all "something this statement references doesn't
// exist yet" conditions a later round can resolve.
var dependencyCodes = map[string]bool{
	"42P01": true, // undefined_table
	"42703": true, // undefined_column
	"42704": true, // undefined_object
	"42883": true, // undefined_function
	"3F000": true, // invalid_schema_name
}

// environmentCodes covers the capability-limitation scenarios spec §4.5
// describes by name rather than by code: feature not supported, role
// already exists, and privilege/permission shortfalls that show up when
// planning against a more permissive environment than the one statements
// are applied to (event triggers and some extensions require superuser;
// some publication/subscription operations require replication
// privileges the connecting role may lack).
var environmentCodes = map[string]bool{
	"42710": true, // duplicate_object (CREATE ROLE when the role already exists)
	"42501": true, // insufficient_privilege
	"0A000": true, // feature_not_supported
	"58P01": true, // undefined_file (extension control file unavailable)
	"55000": true, // object_not_in_prerequisite_state
}

// Classify returns err's Class by inspecting its *pq.Error SQLSTATE
// code, if any. Errors that don't unwrap to a *pq.Error (e.g. context
// cancellation, connection loss) classify as Hard.
func Classify(err error) Class {
	code, ok := Code(err)
	if !ok {
		return Hard
	}
	switch {
	case dependencyCodes[code]:
		return Dependency
	case environmentCodes[code]:
		return Environment
	default:
		return Hard
	}
}

// Code extracts the SQLSTATE string from err, if it unwraps to a
// *pq.Error, along with whether one was found.
func Code(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), true
	}
	return "", false
}
