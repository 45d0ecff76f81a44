package form

import "slices"

// Op is the kind of remote write a patch reflects.
type Op int

const (
	OpCreate Op = iota
	OpUpdate
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Identifiable is implemented by records that carry a store-assigned id.
type Identifiable interface {
	RecordID() string
}

// Patch describes how a confirmed write changes an in-memory list.
type Patch[T Identifiable] struct {
	Op     Op
	Record T
	ID     string
}

// List is an in-memory mirror of a remote collection.
type List[T Identifiable] []T

// Apply returns the list with the patch applied: a create is prepended, an
// update replaces the entry with the same id and a delete removes it. The
// receiver is not modified.
func (l List[T]) Apply(p Patch[T]) List[T] {
	switch p.Op {
	case OpCreate:
		out := make(List[T], 0, len(l)+1)
		out = append(out, p.Record)
		return append(out, l...)
	case OpUpdate:
		out := slices.Clone(l)
		for i := range out {
			if out[i].RecordID() == p.Record.RecordID() {
				out[i] = p.Record
			}
		}
		return out
	case OpDelete:
		return slices.DeleteFunc(slices.Clone(l), func(r T) bool {
			return r.RecordID() == p.ID
		})
	default:
		return slices.Clone(l)
	}
}

// Find returns the entry with the given id.
func (l List[T]) Find(id string) (T, bool) {
	for _, r := range l {
		if r.RecordID() == id {
			return r, true
		}
	}
	var zero T
	return zero, false
}

// ToggleSelection returns the row to show after clicked is activated while
// current is open: the same row collapses, any other row opens.
func ToggleSelection(current, clicked string) string {
	if current == clicked {
		return ""
	}
	return clicked
}
