package settings

import (
	"errors"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Keys recognized on a declarative spec node.
const (
	keyFields      = "fields"
	keyEntryFields = "entry_fields"
	keyInitial     = "initial"
	keyShorthand   = "shorthand"
	keyFixup       = "fixup"
	keyValidate    = "validate"
	keyMapType     = "map_type"
)

// LoadSpecFile reads a declarative spec from a TOML, JSON or YAML file.
func LoadSpecFile(path string) (Spec, error) {
	raw, err := readTree(path)
	if err != nil {
		return nil, err
	}
	spec, err := DecodeSpec(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid spec file '%s': %w", path, err)
	}
	return spec, nil
}

// DecodeSpec builds a Spec from nested maps. Each node is a map whose keys
// are fields or entry_fields (namespaces) and initial, shorthand, fixup,
// validate, map_type (hooks). A hook is either an expr-lang expression
// string, evaluated with the incoming value bound to `value`, or a Go
// function with the hook's signature.
//
// A leaf initial or map_type that is neither is kept as given; the
// initializer and the development-mode spec check reject it.
func DecodeSpec(raw map[string]any) (Spec, error) {
	spec := make(Spec, len(raw))
	for _, name := range sortedKeys(raw) {
		node, ok := asObject(raw[name])
		if !ok {
			return nil, badSpec(name, "specifier must be a table", raw[name])
		}
		specifier, err := decodeSpecifier(name, node)
		if err != nil {
			return nil, err
		}
		spec[name] = specifier
	}
	return spec, nil
}

func decodeSpecifier(name string, node map[string]any) (*Specifier, error) {
	for key := range node {
		switch key {
		case keyFields, keyEntryFields, keyInitial, keyShorthand, keyFixup, keyValidate, keyMapType:
		default:
			return nil, badSpec(name, fmt.Sprintf("unknown specifier key %q", key), node[key])
		}
	}

	_, hasFields := node[keyFields]
	_, hasEntries := node[keyEntryFields]
	switch {
	case hasFields && hasEntries:
		return nil, badSpec(name, "fields and entry_fields are exclusive", node)
	case hasFields || hasEntries:
		return decodeNamespace(name, node, hasEntries)
	default:
		return decodeLeaf(name, node)
	}
}

func decodeNamespace(name string, node map[string]any, entries bool) (*Specifier, error) {
	kind, key := KindNamespace, keyFields
	if entries {
		kind, key = KindEntries, keyEntryFields
	}
	for _, leafKey := range []string{keyFixup, keyValidate, keyMapType} {
		if _, ok := node[leafKey]; ok {
			return nil, badSpec(name, fmt.Sprintf("%s is not allowed on a namespace", leafKey), node[leafKey])
		}
	}

	rawFields, ok := asObject(node[key])
	if !ok {
		return nil, badSpec(name, key+" must be a table", node[key])
	}
	fields, err := DecodeSpec(rawFields)
	if err != nil {
		return nil, err
	}

	s := &Specifier{kind: kind, fields: fields}
	if v, ok := node[keyInitial]; ok {
		if s.nsInitial, err = namespaceInitialHook(name, v); err != nil {
			return nil, err
		}
	}
	if v, ok := node[keyShorthand]; ok {
		if s.shorthand, err = shorthandHook(name, v); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func decodeLeaf(name string, node map[string]any) (*Specifier, error) {
	if _, ok := node[keyShorthand]; ok {
		return nil, badSpec(name, "shorthand is only allowed on a namespace", node[keyShorthand])
	}

	s := &Specifier{kind: KindLeaf}
	var err error
	if v, ok := node[keyInitial]; ok {
		if s.initial, err = initialHook(name, v); err != nil {
			return nil, err
		}
	}
	if v, ok := node[keyFixup]; ok {
		if s.fixup, err = fixupHook(name, v); err != nil {
			return nil, err
		}
	}
	if v, ok := node[keyValidate]; ok {
		if s.validate, err = validateHook(name, v); err != nil {
			return nil, err
		}
	}
	if v, ok := node[keyMapType]; ok {
		if s.mapType, err = mapTypeHook(name, v); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// hookEnv is the expression environment. `value` is the only variable, so an
// unknown identifier (an unquoted string, a misspelling) fails compilation.
type hookEnv struct {
	Value any `expr:"value"`
}

// compileHook compiles an expression hook. `value` is untyped during
// compilation.
func compileHook(name, key, source string) (*vm.Program, error) {
	program, err := expr.Compile(source, expr.Env(hookEnv{}))
	if err != nil {
		return nil, &Error{Kind: ErrKindBadSpecConfiguration, Field: name, Value: source,
			Detail: key + " expression does not compile", Err: err}
	}
	return program, nil
}

func runHook(program *vm.Program, value any) (any, error) {
	return expr.Run(program, hookEnv{Value: value})
}

// initialHook returns an InitialFunc, or raw itself when it is not invocable.
func initialHook(name string, raw any) (any, error) {
	switch fn := raw.(type) {
	case InitialFunc:
		return fn, nil
	case func() (any, error):
		return InitialFunc(fn), nil
	case func() any:
		return InitialFunc(func() (any, error) { return fn(), nil }), nil
	case string:
		program, err := compileHook(name, keyInitial, fn)
		if err != nil {
			return nil, err
		}
		return InitialFunc(func() (any, error) {
			return runHook(program, nil)
		}), nil
	default:
		return raw, nil
	}
}

// mapTypeHook returns a MapTypeFunc, or raw itself when it is not invocable.
func mapTypeHook(name string, raw any) (any, error) {
	switch fn := raw.(type) {
	case MapTypeFunc:
		return fn, nil
	case func(any) (any, error):
		return MapTypeFunc(fn), nil
	case func(any) any:
		return MapTypeFunc(func(v any) (any, error) { return fn(v), nil }), nil
	case string:
		program, err := compileHook(name, keyMapType, fn)
		if err != nil {
			return nil, err
		}
		return MapTypeFunc(func(v any) (any, error) {
			return runHook(program, v)
		}), nil
	default:
		return raw, nil
	}
}

func namespaceInitialHook(name string, raw any) (NamespaceInitialFunc, error) {
	switch fn := raw.(type) {
	case NamespaceInitialFunc:
		return fn, nil
	case func() (map[string]any, error):
		return fn, nil
	case string:
		program, err := compileHook(name, keyInitial, fn)
		if err != nil {
			return nil, err
		}
		return func() (map[string]any, error) {
			out, err := runHook(program, nil)
			if err != nil {
				return nil, err
			}
			return expectObject(out)
		}, nil
	default:
		return nil, badSpec(name, "namespace initial must be a function or expression", raw)
	}
}

func shorthandHook(name string, raw any) (ShorthandFunc, error) {
	switch fn := raw.(type) {
	case ShorthandFunc:
		return fn, nil
	case func(any) (map[string]any, error):
		return fn, nil
	case string:
		program, err := compileHook(name, keyShorthand, fn)
		if err != nil {
			return nil, err
		}
		return func(v any) (map[string]any, error) {
			out, err := runHook(program, v)
			if err != nil {
				return nil, err
			}
			return expectObject(out)
		}, nil
	default:
		return nil, badSpec(name, "shorthand must be a function or expression", raw)
	}
}

func fixupHook(name string, raw any) (FixupFunc, error) {
	switch fn := raw.(type) {
	case FixupFunc:
		return fn, nil
	case func(any) (*Fixup, error):
		return fn, nil
	case string:
		program, err := compileHook(name, keyFixup, fn)
		if err != nil {
			return nil, err
		}
		return func(v any) (*Fixup, error) {
			out, err := runHook(program, v)
			if err != nil {
				return nil, err
			}
			return fixupResult(out)
		}, nil
	default:
		return nil, badSpec(name, "fixup must be a function or expression", raw)
	}
}

func validateHook(name string, raw any) (ValidateFunc, error) {
	switch fn := raw.(type) {
	case ValidateFunc:
		return fn, nil
	case func(any) (*Violation, error):
		return fn, nil
	case string:
		program, err := compileHook(name, keyValidate, fn)
		if err != nil {
			return nil, err
		}
		return func(v any) (*Violation, error) {
			out, err := runHook(program, v)
			if err != nil {
				return nil, err
			}
			return violationResult(v, out)
		}, nil
	default:
		return nil, badSpec(name, "validate must be a function or expression", raw)
	}
}

func expectObject(out any) (map[string]any, error) {
	if out == nil {
		return nil, nil
	}
	object, ok := asObject(out)
	if !ok {
		return nil, fmt.Errorf("expression must yield a map, got %T", out)
	}
	return object, nil
}

// fixupResult reads nil or false as "no change", otherwise a map with a
// value key and optional messages.
func fixupResult(out any) (*Fixup, error) {
	if out == nil || out == false {
		return nil, nil
	}
	object, ok := asObject(out)
	if !ok {
		return nil, fmt.Errorf("fixup expression must yield nil or a map, got %T", out)
	}
	value, ok := object["value"]
	if !ok {
		return nil, errors.New("fixup expression result has no value")
	}
	messages, err := messageList(object["messages"])
	if err != nil {
		return nil, err
	}
	return &Fixup{Value: value, Messages: messages}, nil
}

// violationResult reads nil, false, "" or an empty list as valid; a string
// or list of strings as messages; true as a generic violation.
func violationResult(value, out any) (*Violation, error) {
	if out == true {
		return &Violation{Messages: []string{fmt.Sprintf("invalid value %v", value)}}, nil
	}
	if out == false {
		return nil, nil
	}
	messages, err := messageList(out)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, nil
	}
	return &Violation{Messages: messages}, nil
}

func messageList(v any) ([]string, error) {
	switch m := v.(type) {
	case nil:
		return nil, nil
	case string:
		if m == "" {
			return nil, nil
		}
		return []string{m}, nil
	case []string:
		return m, nil
	case []any:
		messages := make([]string, 0, len(m))
		for _, item := range m {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("message must be a string, got %T", item)
			}
			messages = append(messages, s)
		}
		return messages, nil
	default:
		return nil, fmt.Errorf("messages must be a string or list of strings, got %T", v)
	}
}
