package settings

// validateSpec statically checks a spec tree. It only runs outside
// production mode.
func validateSpec(spec Spec) error {
	for _, name := range sortedKeys(spec) {
		specifier := spec[name]
		if specifier == nil {
			continue
		}
		if specifier.IsNamespace() {
			if err := validateSpec(specifier.fields); err != nil {
				return err
			}
			continue
		}
		if specifier.mapType == nil {
			continue
		}
		if _, ok := specifier.mapType.(MapTypeFunc); !ok {
			return badSpec(name, "map type must be a function", specifier.mapType)
		}
	}
	return nil
}
