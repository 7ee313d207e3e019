// Package types holds the shared data structures used across the
// application. Keeping them in one place prevents import cycles:
// handlers, storage and utils all import types without depending on
// each other.
package types

// Student is one row of the student table.
//
// The JSON names are the column names, which is also what clients of
// GET /mysql have always received.
type Student struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Dept      string `json:"dept"`
}

// StudentInput is the body accepted by POST /mysql and PUT /mysql/{id}.
//
// The fields are pointers so that validate:"required" checks that the
// key is present rather than that its value is non-empty: an explicit
// "" is stored as-is, a missing key is rejected.
type StudentInput struct {
	FirstName *string `json:"firstName" validate:"required"`
	LastName  *string `json:"lastName"  validate:"required"`
	Dept      *string `json:"dept"      validate:"required"`
}
