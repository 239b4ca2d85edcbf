// Command settings resolves a settings file and overrides against a
// declarative spec and prints the result.
//
//	settings -spec spec.toml -input app.toml -show metadata -- --server.port=9090
//
// Arguments after "--" are resolved as setting overrides.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/settings"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("settings", flag.ContinueOnError)
	fs.SetOutput(stderr)
	specPath := fs.String("spec", "", "declarative spec file (toml, yaml or json)")
	inputPath := fs.String("input", "", "settings file to resolve")
	show := fs.String("show", "data", "tree to print: data, metadata, original or debug")
	format := fs.String("format", "json", "output format: json, yaml or toml")
	production := fs.Bool("production", os.Getenv(settings.ModeEnvVar) == "production", "skip spec checks")
	verbose := fs.Bool("v", false, "log initialization traces")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *specPath == "" {
		return errors.New("-spec is required")
	}

	level := slog.LevelWarn
	if *verbose {
		level = settings.LevelTrace
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	m, err := settings.NewBuilder().
		WithSpecFile(*specPath).
		WithLogger(logger).
		WithProduction(*production).
		WithFile(*inputPath).
		WithArgs(fs.Args()).
		Build()
	if err != nil {
		return err
	}

	var tree any
	switch *show {
	case "data":
		tree = m.Data()
	case "metadata":
		tree = m.Metadata().Tree()
	case "original":
		tree = m.Original()
	case "debug":
		_, err := io.WriteString(stdout, m.Debug())
		return err
	default:
		return fmt.Errorf("unknown -show value %q", *show)
	}
	return encode(stdout, *format, tree)
}

func encode(w io.Writer, format string, tree any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tree)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(tree); err != nil {
			return err
		}
		return enc.Close()
	case "toml":
		return toml.NewEncoder(w).Encode(tree)
	default:
		return fmt.Errorf("unknown -format value %q", format)
	}
}
