package catalog

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"thinner/internal/errors"
)

// Format names a catalog encoding.
type Format string

const (
	FormatAuto Format = "auto"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatSCIP Format = "scip"
)

// ParseFormat validates a format name; empty means auto.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatYAML, FormatJSON, FormatSCIP:
		return f, nil
	}
	return "", errors.Newf(errors.CatalogInvalid, "unknown catalog format %q", s)
}

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// readInput reads a catalog file, decompressing zstd content, and settles
// its format from the extension (ignoring .zst) or the content.
func readInput(path string, format Format) ([]byte, Format, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", errors.New(errors.CatalogInvalid, fmt.Sprintf("failed to read catalog %s", path), err)
	}

	name := path
	if strings.EqualFold(filepath.Ext(name), ".zst") || bytes.HasPrefix(data, zstdMagic) {
		if data, err = decompress(data); err != nil {
			return nil, "", errors.New(errors.CatalogInvalid, fmt.Sprintf("failed to decompress catalog %s", path), err)
		}
		name = strings.TrimSuffix(strings.TrimSuffix(name, ".zst"), ".ZST")
	}

	if format == FormatAuto || format == "" {
		format = detectFormat(name, data)
	}
	return data, format, nil
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}

func detectFormat(name string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	case ".scip":
		return FormatSCIP
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatJSON
	}
	return FormatYAML
}
