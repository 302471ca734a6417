package catalog

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"

	"thinner/internal/errors"
)

// Digest returns a BLAKE2b-256 hex digest over the raw contents of the given
// catalog files, in order. Run history records it so that runs over the
// same inputs can be recognised.
func Digest(paths ...string) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	for _, path := range paths {
		if err := digestFile(h, path); err != nil {
			return "", errors.New(errors.CatalogInvalid, fmt.Sprintf("failed to digest catalog %s", path), err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func digestFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	// Length prefix keeps file boundaries significant.
	if _, err := fmt.Fprintf(w, "%d:", info.Size()); err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}
