package settings

// Origin records where a leaf's current value came from.
type Origin string

const (
	// OriginInitial marks a value produced by initialization.
	OriginInitial Origin = "initial"
	// OriginSet marks a value resolved from explicit input.
	OriginSet Origin = "set"
)

// Entry is one node of a Metadata tree. A namespace entry has non-nil
// Fields; a leaf entry carries Value, Initial and From.
type Entry struct {
	Fields  Metadata
	Value   any
	Initial any
	From    Origin
}

// Metadata is the provenance tree kept parallel to the settings data.
type Metadata map[string]*Entry

func namespaceEntry() *Entry {
	return &Entry{Fields: Metadata{}}
}

func leafEntry(value any) *Entry {
	return &Entry{Value: value, Initial: value, From: OriginInitial}
}

// IsNamespace reports whether e is a namespace entry.
func (e *Entry) IsNamespace() bool {
	return e != nil && e.Fields != nil
}

// Lookup follows names through namespace entries and returns the entry found.
func (m Metadata) Lookup(names ...string) (*Entry, bool) {
	current := m
	var entry *Entry
	for i, name := range names {
		e, ok := current[name]
		if !ok {
			return nil, false
		}
		entry = e
		if i < len(names)-1 {
			if !e.IsNamespace() {
				return nil, false
			}
			current = e.Fields
		}
	}
	return entry, entry != nil
}

// Tree renders the metadata as plain nested maps, suitable for encoding.
// Leaves become {"value", "initial", "from"}; namespaces become {"fields"}.
func (m Metadata) Tree() map[string]any {
	out := make(map[string]any, len(m))
	for name, e := range m {
		if e.IsNamespace() {
			out[name] = map[string]any{"fields": e.Fields.Tree()}
			continue
		}
		out[name] = map[string]any{
			"value":   e.Value,
			"initial": e.Initial,
			"from":    string(e.From),
		}
	}
	return out
}

// metadataToData rebuilds the data tree implied by the initial leaf values.
func metadataToData(m Metadata) map[string]any {
	data := make(map[string]any, len(m))
	for name, e := range m {
		if e.IsNamespace() {
			data[name] = metadataToData(e.Fields)
			continue
		}
		data[name] = cloneValue(e.Initial)
	}
	return data
}

// walkLeaves visits every leaf entry with its name path.
func (m Metadata) walkLeaves(prefix []string, fn func(path []string, e *Entry)) {
	for _, name := range sortedKeys(m) {
		e := m[name]
		path := append(append([]string(nil), prefix...), name)
		if e.IsNamespace() {
			e.Fields.walkLeaves(path, fn)
			continue
		}
		fn(path, e)
	}
}
