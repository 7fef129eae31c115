package domain

// Document is a structured key-value configuration payload.
//
// Documents are inherited down the element tree; the effective
// configuration of an element is its ancestors' documents merged in
// root-to-leaf order, the element's own document last.
type Document map[string]any

// Merge overlays other onto d and returns the result as a new Document.
//
// On key collision the value from other wins. When both values are
// Documents (or plain maps), they are merged recursively. Neither
// receiver nor argument is modified.
func (d Document) Merge(other Document) Document {
	merged := d.Clone()
	if merged == nil {
		merged = Document{}
	}
	for k, v := range other {
		if sub, ok := asDocument(v); ok {
			if base, ok := asDocument(merged[k]); ok {
				merged[k] = base.Merge(sub)
				continue
			}
		}
		merged[k] = cloneValue(v)
	}
	return merged
}

// Clone returns a deep copy of d. Clone of nil is nil.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	c := make(Document, len(d))
	for k, v := range d {
		c[k] = cloneValue(v)
	}
	return c
}

func (d Document) Equal(other Document) bool {
	if len(d) != len(other) {
		return false
	}
	for k, v := range d {
		ov, ok := other[k]
		if !ok {
			return false
		}
		if !valueEq(v, ov) {
			return false
		}
	}
	return true
}

func asDocument(v any) (Document, bool) {
	switch m := v.(type) {
	case Document:
		return m, true
	case map[string]any:
		return Document(m), true
	default:
		return nil, false
	}
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case Document:
		return x.Clone()
	case map[string]any:
		return (map[string]any)(Document(x).Clone())
	case []any:
		c := make([]any, len(x))
		for i, e := range x {
			c[i] = cloneValue(e)
		}
		return c
	default:
		return v
	}
}

func valueEq(a, b any) bool {
	if da, ok := asDocument(a); ok {
		db, ok := asDocument(b)
		return ok && da.Equal(db)
	}
	if sa, ok := a.([]any); ok {
		sb, ok := b.([]any)
		if !ok || len(sa) != len(sb) {
			return false
		}
		for i := range sa {
			if !valueEq(sa[i], sb[i]) {
				return false
			}
		}
		return true
	}
	return a == b
}
