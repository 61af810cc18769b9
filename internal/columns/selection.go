package columns

import "slices"

// Selection is the set of columns chosen by the user. Members are kept in
// the order they were selected. The zero value is an empty selection and
// every operation returns a new value, leaving the receiver untouched.
type Selection struct {
	members []string
}

// NewSelection builds a selection from names, dropping duplicates
func NewSelection(names ...string) Selection {
	var s Selection
	for _, name := range names {
		if !s.Contains(name) {
			s.members = append(s.members, name)
		}
	}
	return s
}

// Toggle adds column if absent and removes it if present
func (s Selection) Toggle(column string) Selection {
	idx := slices.Index(s.members, column)
	if idx < 0 {
		return Selection{members: append(slices.Clone(s.members), column)}
	}

	members := slices.Delete(slices.Clone(s.members), idx, idx+1)
	if len(members) == 0 {
		return Selection{}
	}
	return Selection{members: members}
}

// SelectAll replaces the selection with every column of the dataset
func (s Selection) SelectAll(columns []string) Selection {
	return NewSelection(columns...)
}

// Clear empties the selection
func (s Selection) Clear() Selection {
	return Selection{}
}

func (s Selection) Contains(column string) bool {
	return slices.Contains(s.members, column)
}

func (s Selection) Len() int {
	return len(s.members)
}

func (s Selection) IsEmpty() bool {
	return len(s.members) == 0
}

// Columns returns the members in selection order
func (s Selection) Columns() []string {
	return slices.Clone(s.members)
}

// Equal reports whether both selections hold the same members, ignoring order
func (s Selection) Equal(other Selection) bool {
	if len(s.members) != len(other.members) {
		return false
	}
	for _, member := range s.members {
		if !other.Contains(member) {
			return false
		}
	}
	return true
}

// Within reports whether every member is one of columns
func (s Selection) Within(columns []string) bool {
	for _, member := range s.members {
		if !slices.Contains(columns, member) {
			return false
		}
	}
	return true
}
