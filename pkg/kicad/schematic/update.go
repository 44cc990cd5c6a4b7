package schematic

import (
	"fmt"
	"sort"
)

// UpdateKind tells how a field update changes a component
type UpdateKind int

const (
	// Added creates a field the component does not have
	Added UpdateKind = iota
	// Changed replaces an existing field
	Changed
	// Removed deletes a user field
	Removed
)

func (k UpdateKind) String() string {
	switch k {
	case Added:
		return "Added"
	case Changed:
		return "Changed"
	case Removed:
		return "Removed"
	}
	return "Unknown"
}

// FieldUpdate is one entry of a field diff. Old is set for Changed and
// Removed, New for Added and Changed.
type FieldUpdate struct {
	Kind  UpdateKind
	Index int
	Old   ComponentField
	New   ComponentField
}

func (u FieldUpdate) String() string {
	switch u.Kind {
	case Added:
		if u.New.Name != "" {
			return fmt.Sprintf("Added(%d %s: %q)", u.Index, u.New.Name, u.New.Value)
		}
		return fmt.Sprintf("Added(%d: %q)", u.Index, u.New.Value)
	case Changed:
		if u.Old.Name != u.New.Name {
			return fmt.Sprintf("Changed(%d: %q -> %q, name %q -> %q)", u.Index, u.Old.Value, u.New.Value, u.Old.Name, u.New.Name)
		}
		return fmt.Sprintf("Changed(%d: %q -> %q)", u.Index, u.Old.Value, u.New.Value)
	case Removed:
		return fmt.Sprintf("Removed(%d: %q)", u.Index, u.Old.Value)
	}
	return fmt.Sprintf("Unknown(%d)", u.Index)
}

// FieldValues builds a desired field set from plain values
func FieldValues(values map[int]string) map[int]ComponentField {
	out := make(map[int]ComponentField, len(values))
	for i, v := range values {
		out[i] = ComponentField{Value: v}
	}
	return out
}

// Diff compares the component's fields with the desired set.
//
// Indices only in desired are Added, indices in both whose value (or, for
// user fields, non-empty name) differs are Changed, and user fields missing
// from desired are Removed. Built-in fields are never removed; blank them
// with an empty value instead. Updates are ordered by index.
func Diff(c *Component, desired map[int]ComponentField) []FieldUpdate {
	var updates []FieldUpdate

	for idx, want := range desired {
		have, ok := c.Fields[idx]
		if !ok {
			updates = append(updates, FieldUpdate{Kind: Added, Index: idx, New: c.newField(want)})
			continue
		}

		next := have
		next.Value = want.Value
		if idx >= FirstUserField && want.Name != "" {
			next.Name = want.Name
		}
		if next != have {
			updates = append(updates, FieldUpdate{Kind: Changed, Index: idx, Old: have, New: next})
		}
	}

	for idx, have := range c.Fields {
		if _, ok := desired[idx]; ok || IsBuiltinField(idx) {
			continue
		}
		updates = append(updates, FieldUpdate{Kind: Removed, Index: idx, Old: have})
	}

	sort.Slice(updates, func(i, j int) bool {
		return updates[i].Index < updates[j].Index
	})
	return updates
}

// newField fills in placement defaults for a field being added
func (c *Component) newField(f ComponentField) ComponentField {
	if f.Position == (Position{}) {
		f.Position = c.Position
	}
	if f.Size == 0 {
		f.Size = defaultFieldSize
	}
	return f
}

// Apply applies updates to the component's fields. Either every update is
// applied or none is. Changed and Removed need the field to exist, and
// Removed is refused for built-in fields. A successful Apply marks the
// component dirty.
//
// Apply does no locking; callers serialize updates to one component.
func (c *Component) Apply(updates []FieldUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	fields := c.Fields.Clone()
	for _, u := range updates {
		switch u.Kind {
		case Added:
			fields[u.Index] = u.New
		case Changed:
			if _, ok := fields[u.Index]; !ok {
				return &FieldNotFoundError{Reference: c.Reference, Index: u.Index}
			}
			fields[u.Index] = u.New
		case Removed:
			if IsBuiltinField(u.Index) {
				return fmt.Errorf("component %s field %d: %w", c.Reference, u.Index, ErrBuiltinField)
			}
			if _, ok := fields[u.Index]; !ok {
				return &FieldNotFoundError{Reference: c.Reference, Index: u.Index}
			}
			delete(fields, u.Index)
		default:
			return fmt.Errorf("component %s: unknown update kind %d", c.Reference, int(u.Kind))
		}
	}

	for _, u := range updates {
		if u.Index == FieldReference {
			c.Reference = fields[FieldReference].Value
		}
	}
	c.Fields = fields
	c.dirty = true
	return nil
}

// SetFields diffs the component against desired and applies the result
func (c *Component) SetFields(desired map[int]ComponentField) ([]FieldUpdate, error) {
	updates := Diff(c, desired)
	if err := c.Apply(updates); err != nil {
		return nil, err
	}
	return updates, nil
}
