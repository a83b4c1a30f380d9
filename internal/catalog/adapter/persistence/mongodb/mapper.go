package mongodb

import (
	"strings"
	"time"
)

// Presence is the rule deciding whether a field of a partial entity overwrites the stored value
type Presence int

const (
	// PresenceText is present when the value is non-empty after trimming; the trimmed value is written
	PresenceText Presence = iota
	// PresenceScalar is present when the value differs from its zero value
	PresenceScalar
	// PresenceTime is present when the timestamp is not the zero time
	PresenceTime
	// PresencePointer is present when the pointer is non-nil
	PresencePointer
	// PresenceCollection is present when the slice or map is non-empty
	PresenceCollection
)

func (p Presence) String() string {
	switch p {
	case PresenceText:
		return "text"
	case PresenceScalar:
		return "scalar"
	case PresenceTime:
		return "time"
	case PresencePointer:
		return "pointer"
	case PresenceCollection:
		return "collection"
	default:
		return "unknown"
	}
}

// Field is one row of a mapping table between entity E and document D.
// A row without entity accessor describes a document-only field such as the version counter.
type Field[E, D any] struct {
	Name     string
	Presence Presence

	toDocument func(e *E, d *D)
	toEntity   func(d *D, e *E)
	merge      func(dst *D, patch *E) bool
}

// DocumentOnly reports whether the field exists only on the stored document
func (f Field[E, D]) DocumentOnly() bool {
	return f.toDocument == nil
}

// TextField maps a string field. Merge writes the trimmed value when it is not blank.
func TextField[E, D any](name string, entity func(*E) *string, doc func(*D) *string) Field[E, D] {
	f := Field[E, D]{Name: name, Presence: PresenceText}
	if entity == nil {
		return f
	}
	f.toDocument = func(e *E, d *D) { *doc(d) = *entity(e) }
	f.toEntity = func(d *D, e *E) { *entity(e) = *doc(d) }
	f.merge = func(dst *D, patch *E) bool {
		v := strings.TrimSpace(*entity(patch))
		if v == "" {
			return false
		}
		*doc(dst) = v
		return true
	}
	return f
}

// ScalarField maps a comparable value. Merge writes it unless it is the zero value.
func ScalarField[E, D any, V comparable](name string, entity func(*E) *V, doc func(*D) *V) Field[E, D] {
	f := Field[E, D]{Name: name, Presence: PresenceScalar}
	if entity == nil {
		return f
	}
	f.toDocument = func(e *E, d *D) { *doc(d) = *entity(e) }
	f.toEntity = func(d *D, e *E) { *entity(e) = *doc(d) }
	f.merge = func(dst *D, patch *E) bool {
		var zero V
		v := *entity(patch)
		if v == zero {
			return false
		}
		*doc(dst) = v
		return true
	}
	return f
}

// TimeField maps a timestamp. Merge writes it unless it is the zero time.
func TimeField[E, D any](name string, entity func(*E) *time.Time, doc func(*D) *time.Time) Field[E, D] {
	f := Field[E, D]{Name: name, Presence: PresenceTime}
	if entity == nil {
		return f
	}
	f.toDocument = func(e *E, d *D) { *doc(d) = *entity(e) }
	f.toEntity = func(d *D, e *E) { *entity(e) = *doc(d) }
	f.merge = func(dst *D, patch *E) bool {
		v := *entity(patch)
		if v.IsZero() {
			return false
		}
		*doc(dst) = v
		return true
	}
	return f
}

// PointerField maps an optional value. Merge writes it when the pointer is set, even to a zero value.
func PointerField[E, D any, V any](name string, entity func(*E) **V, doc func(*D) **V) Field[E, D] {
	f := Field[E, D]{Name: name, Presence: PresencePointer}
	if entity == nil {
		return f
	}
	f.toDocument = func(e *E, d *D) { *doc(d) = *entity(e) }
	f.toEntity = func(d *D, e *E) { *entity(e) = *doc(d) }
	f.merge = func(dst *D, patch *E) bool {
		v := *entity(patch)
		if v == nil {
			return false
		}
		*doc(dst) = v
		return true
	}
	return f
}

// SliceField maps a list of values of the same type on both sides. Merge skips empty lists.
func SliceField[E, D any, V any](name string, entity func(*E) *[]V, doc func(*D) *[]V) Field[E, D] {
	f := Field[E, D]{Name: name, Presence: PresenceCollection}
	if entity == nil {
		return f
	}
	f.toDocument = func(e *E, d *D) { *doc(d) = *entity(e) }
	f.toEntity = func(d *D, e *E) { *entity(e) = *doc(d) }
	f.merge = func(dst *D, patch *E) bool {
		v := *entity(patch)
		if len(v) == 0 {
			return false
		}
		*doc(dst) = v
		return true
	}
	return f
}

// NestedField maps a list of sub-entities element-wise with the child mapper
func NestedField[E, D any, CE, CD any](name string, child *Mapper[CE, CD], entity func(*E) *[]CE, doc func(*D) *[]CD) Field[E, D] {
	f := Field[E, D]{Name: name, Presence: PresenceCollection}
	if entity == nil {
		return f
	}
	f.toDocument = func(e *E, d *D) { *doc(d) = child.ToDocuments(*entity(e)) }
	f.toEntity = func(d *D, e *E) { *entity(e) = child.ToEntities(*doc(d)) }
	f.merge = func(dst *D, patch *E) bool {
		v := *entity(patch)
		if len(v) == 0 {
			return false
		}
		*doc(dst) = child.ToDocuments(v)
		return true
	}
	return f
}

// MapField maps a dictionary. Merge skips empty maps.
func MapField[E, D any, K comparable, V any](name string, entity func(*E) *map[K]V, doc func(*D) *map[K]V) Field[E, D] {
	f := Field[E, D]{Name: name, Presence: PresenceCollection}
	if entity == nil {
		return f
	}
	f.toDocument = func(e *E, d *D) { *doc(d) = *entity(e) }
	f.toEntity = func(d *D, e *E) { *entity(e) = *doc(d) }
	f.merge = func(dst *D, patch *E) bool {
		v := *entity(patch)
		if len(v) == 0 {
			return false
		}
		*doc(dst) = v
		return true
	}
	return f
}

// Mapper converts between an entity and its stored document using a field table
type Mapper[E, D any] struct {
	fields []Field[E, D]
}

// NewMapper builds a mapper from its field table
func NewMapper[E, D any](fields ...Field[E, D]) *Mapper[E, D] {
	return &Mapper[E, D]{fields: fields}
}

// Fields returns the names of every row in table order
func (m *Mapper[E, D]) Fields() []string {
	names := make([]string, 0, len(m.fields))
	for _, f := range m.fields {
		names = append(names, f.Name)
	}
	return names
}

// ToDocument copies every mapped field of e into a new document
func (m *Mapper[E, D]) ToDocument(e *E) *D {
	d := new(D)
	if e == nil {
		return d
	}
	for _, f := range m.fields {
		if f.toDocument != nil {
			f.toDocument(e, d)
		}
	}
	return d
}

// ToEntity copies every mapped field of d into a new entity
func (m *Mapper[E, D]) ToEntity(d *D) *E {
	e := new(E)
	if d == nil {
		return e
	}
	for _, f := range m.fields {
		if f.toEntity != nil {
			f.toEntity(d, e)
		}
	}
	return e
}

// ToEntities maps a list of documents element-wise
func (m *Mapper[E, D]) ToEntities(docs []D) []E {
	if docs == nil {
		return nil
	}
	out := make([]E, len(docs))
	for i := range docs {
		out[i] = *m.ToEntity(&docs[i])
	}
	return out
}

// ToDocuments maps a list of entities element-wise
func (m *Mapper[E, D]) ToDocuments(entities []E) []D {
	if entities == nil {
		return nil
	}
	out := make([]D, len(entities))
	for i := range entities {
		out[i] = *m.ToDocument(&entities[i])
	}
	return out
}

// Merge copies the present fields of patch onto dst, skipping the excluded names.
// It returns the names of the fields that were written.
func (m *Mapper[E, D]) Merge(dst *D, patch *E, excluded map[string]struct{}) []string {
	var merged []string
	if dst == nil || patch == nil {
		return merged
	}
	for _, f := range m.fields {
		if f.merge == nil {
			continue
		}
		if _, skip := excluded[f.Name]; skip {
			continue
		}
		if f.merge(dst, patch) {
			merged = append(merged, f.Name)
		}
	}
	return merged
}
