package errclass_test

import (
	"errors"
	"fmt"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/lib/pq"

	"github.com/stokaro/ptahdiff/applier/errclass"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errclass.Class
	}{
		{"undefined table is dependency", &pq.Error{Code: "42P01", Message: "relation does not exist"}, errclass.Dependency},
		{"undefined function is dependency", &pq.Error{Code: "42883", Message: "function does not exist"}, errclass.Dependency},
		{"duplicate object is environment", &pq.Error{Code: "42710", Message: "role already exists"}, errclass.Environment},
		{"insufficient privilege is environment", &pq.Error{Code: "42501", Message: "must be superuser"}, errclass.Environment},
		{"syntax error is hard", &pq.Error{Code: "42601", Message: "syntax error"}, errclass.Hard},
		{"non-pq error is hard", errors.New("connection reset"), errclass.Hard},
		{"wrapped pq error still classifies", fmt.Errorf("executing statement: %w", &pq.Error{Code: "3F000"}), errclass.Dependency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			c.Assert(errclass.Classify(tt.err), qt.Equals, tt.want)
		})
	}
}

func TestCode(t *testing.T) {
	c := qt.New(t)

	code, ok := errclass.Code(&pq.Error{Code: "42P01"})
	c.Assert(ok, qt.IsTrue)
	c.Assert(code, qt.Equals, "42P01")

	_, ok = errclass.Code(errors.New("boom"))
	c.Assert(ok, qt.IsFalse)
}
