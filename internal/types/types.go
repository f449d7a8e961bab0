// Package types holds the data structures shared by the HTTP handlers and
// the storage backends. Keeping them in one place prevents import cycles.
package types

import (
	"github.com/juju/errors"
)

// Student is a persisted student record as returned to API clients.
type Student struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Age  int    `json:"age"`
}

// NewStudent is the payload of a create request.
//
// Age is a pointer so that a missing field can be told apart from an
// explicit zero: validator's "required" on a pointer only checks for nil,
// and the remaining rules are applied to the value it points to.
type NewStudent struct {
	Name string `json:"name" validate:"required"`
	Age  *int   `json:"age"  validate:"required,gte=0"`
}

// StudentPatch is the payload of a partial update. Fields that are absent
// from the request body keep their stored value.
type StudentPatch struct {
	Name Optional[string] `json:"name"`
	Age  Optional[int]    `json:"age"`
}

// Empty reports whether the patch carries no field at all.
func (p StudentPatch) Empty() bool {
	return !p.Name.Set && !p.Age.Set
}

// Validate checks the fields that are present. Clearing a field with an
// explicit null is not supported.
func (p StudentPatch) Validate() error {
	if p.Name.Null {
		return errors.NewNotValid(nil, "field name cannot be null")
	}
	if p.Age.Null {
		return errors.NewNotValid(nil, "field age cannot be null")
	}
	if name, ok := p.Name.Get(); ok && name == "" {
		return errors.NewNotValid(nil, "field name is required")
	}
	if age, ok := p.Age.Get(); ok && age < 0 {
		return errors.NewNotValid(nil, "field age must not be negative")
	}
	return nil
}

// Apply returns s with the present fields of p written over it.
func (p StudentPatch) Apply(s Student) Student {
	if name, ok := p.Name.Get(); ok {
		s.Name = name
	}
	if age, ok := p.Age.Get(); ok {
		s.Age = age
	}
	return s
}
