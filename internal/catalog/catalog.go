// Package catalog loads metadata catalogs, YAML or JSON descriptions of
// compiled assemblies or SCIP indexes, into a metadata.Program.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"thinner/internal/errors"
	"thinner/internal/metadata"
)

// Loader reads catalog files.
type Loader struct {
	logger *slog.Logger
	format Format
}

// NewLoader creates a loader. format forces one encoding for every input;
// FormatAuto detects it per file.
func NewLoader(logger *slog.Logger, format Format) *Loader {
	if format == "" {
		format = FormatAuto
	}
	return &Loader{logger: logger, format: format}
}

// Load reads every path and builds one program over all their assemblies.
func (l *Loader) Load(paths ...string) (*metadata.Program, error) {
	if len(paths) == 0 {
		return nil, errors.Newf(errors.CatalogInvalid, "no catalog files given")
	}
	start := time.Now()

	var all []*metadata.Assembly
	for _, path := range paths {
		asms, err := l.loadFile(path)
		if err != nil {
			return nil, err
		}
		all = append(all, asms...)
	}

	program, err := metadata.NewProgram(all)
	if err != nil {
		return nil, err
	}

	l.logger.Info("Catalog loaded",
		"files", len(paths),
		"assemblies", len(program.Assemblies()),
		"types", len(program.Types()),
		"members", len(program.Members()),
		"duration", time.Since(start).Round(time.Millisecond).String(),
	)
	return program, nil
}

func (l *Loader) loadFile(path string) ([]*metadata.Assembly, error) {
	data, format, err := readInput(path, l.format)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("Reading catalog", "path", path, "format", string(format), "bytes", len(data))

	if format == FormatSCIP {
		asms, skipped, err := importSCIP(data)
		if err != nil {
			return nil, err
		}
		if skipped > 0 {
			l.logger.Debug("SCIP symbols not represented", "path", path, "count", skipped)
		}
		return asms, nil
	}

	f, err := Decode(data, format)
	if err != nil {
		return nil, errors.New(errors.CatalogInvalid, fmt.Sprintf("failed to decode catalog %s", path), err)
	}
	b := &builder{source: path}
	return b.assemblies(f)
}

// Decode parses YAML or JSON catalog content.
func Decode(data []byte, format Format) (*File, error) {
	var f File
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, err
		}
	case FormatYAML, FormatAuto, "":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("format %s is not a catalog document format", format)
	}
	return &f, nil
}

// Build turns decoded catalog files into a program. It is the in-memory
// counterpart of Load.
func Build(source string, files ...*File) (*metadata.Program, error) {
	b := &builder{source: source}
	var all []*metadata.Assembly
	for _, f := range files {
		asms, err := b.assemblies(f)
		if err != nil {
			return nil, err
		}
		all = append(all, asms...)
	}
	return metadata.NewProgram(all)
}

// MustParse decodes YAML catalog text and builds a program, panicking on
// error. It is meant for test fixtures.
func MustParse(text string) *metadata.Program {
	f, err := Decode([]byte(text), FormatYAML)
	if err != nil {
		panic(err)
	}
	p, err := Build("fixture", f)
	if err != nil {
		panic(err)
	}
	return p
}
