// Package project reads and edits the bonnie.toml project document.
//
// The document has two tables:
//
//	[scripts]
//	start = "echo \"No start script yet.\""
//	test = "go test ./... %%"
//
//	[dependencies]
//	left-pad = "1.3.0"
//
// [RecordInstalledDependency] edits the file in place and keeps every byte
// outside the edited entry, so comments, ordering and blank lines survive an
// install.
package project

import (
	"errors"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"

	errs "github.com/matzehuels/bonnie/pkg/errors"
)

// DefaultPath is the project document used when no override is given.
const DefaultPath = "./bonnie.toml"

const initialDocument = `[scripts]
start = "echo \"No start script yet.\""
`

// Document is the decoded project document.
type Document struct {
	Scripts      map[string]string `toml:"scripts"`
	Dependencies map[string]string `toml:"dependencies"`
}

// ResolvePath returns override, or [DefaultPath] when override is empty.
func ResolvePath(override string) string {
	if override != "" {
		return override
	}
	return DefaultPath
}

// Load reads and decodes the document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeIO, err, "read %s", path)
	}
	return Parse(data)
}

// Parse decodes a document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, errs.Wrap(errs.ErrCodeParse, err, "decode project document")
	}
	if doc.Scripts == nil {
		doc.Scripts = map[string]string{}
	}
	if doc.Dependencies == nil {
		doc.Dependencies = map[string]string{}
	}
	return &doc, nil
}

// Init writes a starter document to path. An existing file is never
// overwritten.
func Init(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return errs.New(errs.ErrCodeAlreadyExists,
			"%s already exists; delete it first to create a new one", path)
	}
	if err != nil {
		return errs.Wrap(errs.ErrCodeIO, err, "create %s", path)
	}
	if _, err := f.WriteString(initialDocument); err != nil {
		f.Close()
		return errs.Wrap(errs.ErrCodeIO, err, "write %s", path)
	}
	if err := f.Close(); err != nil {
		return errs.Wrap(errs.ErrCodeIO, err, "write %s", path)
	}
	return nil
}
