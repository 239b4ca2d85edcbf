package settings

// initialize populates data and metadata from the defaults declared in spec.
// Values already present in data are kept where the spec gives no initial.
func initialize(spec Spec, data map[string]any, metadata Metadata, logger Logger) error {
	for _, name := range sortedKeys(spec) {
		specifier := spec[name]
		if specifier == nil {
			continue
		}

		if specifier.IsNamespace() {
			if err := initializeNamespace(name, specifier, data, metadata, logger); err != nil {
				return err
			}
			continue
		}

		value, err := initialValue(name, specifier, data[name], logger)
		if err != nil {
			return err
		}
		data[name] = value
		metadata[name] = leafEntry(value)
	}
	return nil
}

func initializeNamespace(name string, specifier *Specifier, data map[string]any, metadata Metadata, logger Logger) error {
	initialized := map[string]any{}
	if specifier.nsInitial != nil {
		var produced map[string]any
		err := recovered(func() error {
			var err error
			produced, err = specifier.nsInitial()
			return err
		})
		if err != nil {
			return newError(ErrKindInitializerFailure, name, nil, err)
		}
		if produced != nil {
			initialized = cloneTree(produced)
		}
	}

	if _, isObject := asObject(data[name]); !isObject {
		data[name] = initialized
	}

	child, _ := data[name].(map[string]any)
	if child == nil {
		// a string-keyed map of another type; normalize so it can be mutated in place
		child, _ = asObject(data[name])
		data[name] = child
	}

	// entries mirror the object kept in data, which a parent initializer may have placed
	entry := namespaceEntry()
	for key, value := range child {
		entry.Fields[key] = leafEntry(value)
	}
	metadata[name] = entry

	return initialize(specifier.fields, child, entry.Fields, logger)
}

// initialValue computes a leaf's initial value; existing is kept when the
// leaf declares no initializer.
func initialValue(name string, specifier *Specifier, existing any, logger Logger) (any, error) {
	if specifier.initial == nil {
		return existing, nil
	}

	initial, ok := specifier.initial.(InitialFunc)
	if !ok {
		return nil, badSpec(name, "initial must be a function, static initial values are not allowed", specifier.initial)
	}

	var raw any
	err := recovered(func() error {
		var err error
		raw, err = initial()
		return err
	})
	if err != nil {
		return nil, newError(ErrKindInitializerFailure, name, nil, err)
	}

	value := raw
	if specifier.mapType != nil {
		value, err = mapValue(name, specifier, raw)
		if err != nil {
			return nil, err
		}
	}

	logTrace(logger, "initialized setting", "name", name, "raw", raw, "mapped", value)
	return value, nil
}
