// Package settings resolves partial, user-supplied settings against a
// declarative spec tree and keeps provenance for every resolved value.
//
// A Spec describes the expected settings. Namespaces group child
// specifiers and may expand a scalar through a shorthand; leaves may
// declare an initializer, a fixup that corrects recoverable values, a
// validator and a type mapper:
//
//	spec := settings.Spec{
//	    "port": settings.Leaf(
//	        settings.WithInitial(func() (any, error) { return 3000, nil }),
//	        settings.WithMapType(settings.MapTo[int]()),
//	    ),
//	    "host": settings.Leaf(
//	        settings.WithInitial(func() (any, error) { return "localhost", nil }),
//	    ),
//	}
//
//	m, err := settings.New(spec)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := m.Change(map[string]any{"port": "8080"}); err != nil {
//	    log.Fatal(err)
//	}
//
//	port := m.Data()["port"]                // 8080
//	from := m.Metadata()["port"].From       // settings.OriginSet
//	defaults := m.Original()                // {"port": 3000, "host": "localhost"}
//
// Resolution order for a leaf is fixup, validate, map type. Fixups are
// reported through the OnFixupFunc (default: a warning log) and never fail
// resolution on their own; every other hook failure aborts the Change with
// an *Error whose Kind identifies the failing step.
//
// Specs can also be declared in TOML, YAML or JSON and loaded with
// LoadSpecFile. Hooks are then expr-lang expressions over `value`; string
// literals need quoting inside the expression (initial = "'localhost'").
//
// Outside production mode (GO_ENV != "production") the spec is checked
// once at construction.
//
// A Manager is single-threaded: it takes no locks, and hooks must not call
// back into the Manager running them.
package settings
