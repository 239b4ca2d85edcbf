package settings

// resolveOptions carries the per-manager collaborators used while resolving.
type resolveOptions struct {
	onFixup OnFixupFunc
	logger  Logger
}

// resolve merges input into data and metadata according to spec. Input is
// never mutated. Fields committed before a failure stay committed.
func resolve(opts resolveOptions, spec Spec, input map[string]any, data map[string]any, metadata Metadata) error {
	for _, name := range sortedKeys(input) {
		value := input[name]

		specifier, ok := spec[name]
		if !ok || specifier == nil {
			return newError(ErrKindUnknownSetting, name, value, nil)
		}

		object, isObject := asObject(value)
		if isObject && !specifier.IsNamespace() {
			return &Error{Kind: ErrKindNamespaceShapeMismatch, Field: name, Value: value,
				Detail: "is not a namespace, does not accept objects"}
		}
		if !isObject && specifier.IsNamespace() && specifier.shorthand == nil {
			return &Error{Kind: ErrKindNamespaceShapeMismatch, Field: name, Value: value,
				Detail: "is a namespace with no shorthand, expects an object"}
		}

		if specifier.IsNamespace() {
			if !isObject {
				expanded, err := expandShorthand(name, specifier, value)
				if err != nil {
					return err
				}
				object = expanded
			}
			childData, childMeta := namespaceChildren(name, data, metadata)
			if err := resolve(opts, specifier.fields, object, childData, childMeta); err != nil {
				return err
			}
			continue
		}

		resolved, err := resolveLeaf(opts, name, specifier, value)
		if err != nil {
			return err
		}

		data[name] = resolved
		entry, ok := metadata[name]
		if !ok || entry.IsNamespace() {
			entry = &Entry{}
			metadata[name] = entry
		}
		entry.Value = resolved
		entry.From = OriginSet
	}
	return nil
}

// namespaceChildren returns the mutable data and metadata subtrees of a
// namespace, creating them when missing.
func namespaceChildren(name string, data map[string]any, metadata Metadata) (map[string]any, Metadata) {
	child, ok := data[name].(map[string]any)
	if !ok {
		child, ok = asObject(data[name])
		if !ok {
			child = map[string]any{}
		}
		data[name] = child
	}

	entry, ok := metadata[name]
	if !ok || !entry.IsNamespace() {
		entry = namespaceEntry()
		metadata[name] = entry
	}
	return child, entry.Fields
}

func expandShorthand(name string, specifier *Specifier, value any) (map[string]any, error) {
	var expanded map[string]any
	err := recovered(func() error {
		var err error
		expanded, err = specifier.shorthand(value)
		return err
	})
	if err != nil {
		return nil, newError(ErrKindShorthandFailure, name, value, err)
	}
	return expanded, nil
}

// resolveLeaf runs fixup, validation and type mapping, in that order.
func resolveLeaf(opts resolveOptions, name string, specifier *Specifier, value any) (any, error) {
	if specifier.fixup != nil {
		var fixed *Fixup
		err := recovered(func() error {
			var err error
			fixed, err = specifier.fixup(value)
			return err
		})
		if err != nil {
			return nil, newError(ErrKindFixupFailure, name, value, err)
		}
		if fixed != nil {
			info := FixupInfo{Name: name, Before: value, After: fixed.Value, Messages: fixed.Messages}
			value = fixed.Value
			if err := dispatchFixup(opts, info); err != nil {
				return nil, newError(ErrKindFixupCallbackFailure, name, value, err)
			}
		}
	}

	if specifier.validate != nil {
		var violation *Violation
		err := recovered(func() error {
			var err error
			violation, err = specifier.validate(value)
			return err
		})
		if err != nil {
			return nil, newError(ErrKindValidationUnexpectedFailure, name, value, err)
		}
		if violation != nil {
			return nil, &Error{Kind: ErrKindValidationFailure, Field: name, Value: value, Messages: violation.Messages}
		}
	}

	if specifier.mapType != nil {
		return mapValue(name, specifier, value)
	}
	return value, nil
}

func dispatchFixup(opts resolveOptions, info FixupInfo) error {
	defaultHandler := defaultFixupHandler(opts.logger)
	return recovered(func() error {
		if opts.onFixup != nil {
			return opts.onFixup(info, defaultHandler)
		}
		return defaultHandler(info)
	})
}

// mapValue applies the specifier's type mapper. A mapper that is not
// invocable (possible only when spec validation was skipped) fails here.
func mapValue(name string, specifier *Specifier, value any) (any, error) {
	mapper, ok := specifier.mapType.(MapTypeFunc)
	if !ok {
		return nil, newError(ErrKindTypeMapperFailure, name, value,
			badSpec(name, "map type must be a function", specifier.mapType))
	}

	var mapped any
	err := recovered(func() error {
		var err error
		mapped, err = mapper(value)
		return err
	})
	if err != nil {
		return nil, newError(ErrKindTypeMapperFailure, name, value, err)
	}
	return mapped, nil
}
