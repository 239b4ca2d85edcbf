package settings

import "sort"

// Kind identifies the shape of a Specifier.
type Kind int

const (
	// KindLeaf is a single setting with optional initial, fixup, validate and map type hooks.
	KindLeaf Kind = iota
	// KindNamespace groups child specifiers under Fields.
	KindNamespace
	// KindEntries is a dictionary-of-entries namespace. It initializes and
	// resolves exactly like KindNamespace.
	KindEntries
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindNamespace:
		return "namespace"
	case KindEntries:
		return "entries"
	default:
		return "unknown"
	}
}

// Spec is a declarative tree of expected settings keyed by setting name.
// The engine never mutates a Spec.
type Spec map[string]*Specifier

// InitialFunc produces the default value of a leaf. It runs on construction
// and again on every Reset.
type InitialFunc func() (any, error)

// NamespaceInitialFunc produces a default raw object for a whole namespace.
type NamespaceInitialFunc func() (map[string]any, error)

// ShorthandFunc expands a non-object value into an equivalent namespace object.
type ShorthandFunc func(value any) (map[string]any, error)

// FixupFunc corrects a recoverable value. A nil *Fixup means no change.
type FixupFunc func(value any) (*Fixup, error)

// ValidateFunc checks a value. A nil *Violation means the value is valid.
type ValidateFunc func(value any) (*Violation, error)

// MapTypeFunc coerces a value into the type the application expects.
type MapTypeFunc func(value any) (any, error)

// Fixup is the corrected value produced by a FixupFunc and the reasons for it.
type Fixup struct {
	Value    any
	Messages []string
}

// Violation lists the reasons a value failed validation.
type Violation struct {
	Messages []string
}

// Specifier is one node of a Spec, either a leaf or a namespace. Construct
// it with Leaf, Namespace or Entries.
type Specifier struct {
	kind   Kind
	fields Spec

	// namespace hooks
	nsInitial NamespaceInitialFunc
	shorthand ShorthandFunc

	// leaf hooks; initial and mapType hold either the typed hook, nil, or the
	// raw value of a misconfigured declarative spec.
	initial  any
	fixup    FixupFunc
	validate ValidateFunc
	mapType  any
}

// LeafOption configures a leaf Specifier.
type LeafOption func(*Specifier)

// NamespaceOption configures a namespace or entries Specifier.
type NamespaceOption func(*Specifier)

// Leaf creates a leaf specifier.
func Leaf(opts ...LeafOption) *Specifier {
	s := &Specifier{kind: KindLeaf}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Namespace creates a namespace specifier over fields.
func Namespace(fields Spec, opts ...NamespaceOption) *Specifier {
	return newNamespace(KindNamespace, fields, opts)
}

// Entries creates a dictionary-of-entries namespace specifier over fields.
func Entries(fields Spec, opts ...NamespaceOption) *Specifier {
	return newNamespace(KindEntries, fields, opts)
}

func newNamespace(kind Kind, fields Spec, opts []NamespaceOption) *Specifier {
	if fields == nil {
		fields = Spec{}
	}
	s := &Specifier{kind: kind, fields: fields}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// WithInitial sets the leaf initializer.
func WithInitial(fn InitialFunc) LeafOption {
	return func(s *Specifier) {
		if fn != nil {
			s.initial = fn
		}
	}
}

// WithFixup sets the leaf fixup.
func WithFixup(fn FixupFunc) LeafOption {
	return func(s *Specifier) {
		s.fixup = fn
	}
}

// WithValidate sets the leaf validator.
func WithValidate(fn ValidateFunc) LeafOption {
	return func(s *Specifier) {
		s.validate = fn
	}
}

// WithMapType sets the leaf type mapper.
func WithMapType(fn MapTypeFunc) LeafOption {
	return func(s *Specifier) {
		if fn != nil {
			s.mapType = fn
		}
	}
}

// WithNamespaceInitial sets the initializer producing the namespace's raw default object.
func WithNamespaceInitial(fn NamespaceInitialFunc) NamespaceOption {
	return func(s *Specifier) {
		s.nsInitial = fn
	}
}

// WithShorthand lets the namespace accept a non-object value, expanded by fn.
func WithShorthand(fn ShorthandFunc) NamespaceOption {
	return func(s *Specifier) {
		s.shorthand = fn
	}
}

// Kind reports the specifier's shape.
func (s *Specifier) Kind() Kind {
	return s.kind
}

// IsNamespace reports whether s holds child fields (namespace or entries).
func (s *Specifier) IsNamespace() bool {
	return s.kind == KindNamespace || s.kind == KindEntries
}

// Fields returns the child spec of a namespace, nil for a leaf.
func (s *Specifier) Fields() Spec {
	if !s.IsNamespace() {
		return nil
	}
	return s.fields
}

// HasShorthand reports whether a namespace accepts non-object values.
func (s *Specifier) HasShorthand() bool {
	return s.shorthand != nil
}

// sortedKeys returns the keys of m in lexical order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
