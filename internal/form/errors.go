// Package form implements the validate, submit and patch-list workflow shared
// by every data-entry screen of the portal.
package form

import "maps"

// SubmitField is the synthetic error key set when a submission fails remotely.
const SubmitField = "submit"

// Errors maps a field name to a human-readable message. A missing key means
// the field is valid.
type Errors map[string]string

// Empty reports whether no field has an error.
func (e Errors) Empty() bool { return len(e) == 0 }

// Get returns the message for field, or "".
func (e Errors) Get(field string) string { return e[field] }

// Has reports whether field has an error.
func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

func (e Errors) clone() Errors {
	if e == nil {
		return Errors{}
	}
	return maps.Clone(e)
}
