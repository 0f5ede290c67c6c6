package plist

import (
	"fmt"

	"github.com/spf13/afero"
	howett "howett.net/plist"
)

// ReadError is returned when a property-list file is missing or cannot be parsed.
type ReadError struct {
	Path string
	Err  error
}

// Error implements error.
func (e *ReadError) Error() string {
	return fmt.Sprintf("unable to read property list [%s]: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ReadError) Unwrap() error {
	return e.Err
}

// WriteError is returned when a property-list file cannot be encoded or written.
type WriteError struct {
	Path string
	Err  error
}

// Error implements error.
func (e *WriteError) Error() string {
	return fmt.Sprintf("unable to write property list [%s]: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *WriteError) Unwrap() error {
	return e.Err
}

// File is a property-list document bound to the path it was loaded from.
type File struct {
	Path   string    // Path of the file.
	Format int       // Format is the on-disk encoding, one of the howett.net/plist format constants.
	Root   *Document // Root is the top-level dictionary.
}

// Load reads and parses the property list at path.
func Load(fs afero.Fs, path string) (*File, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	doc, format, err := decode(data)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	return &File{Path: path, Format: format, Root: doc}, nil
}

// Save writes the document back to its path, in the format it was read in.
func (f *File) Save(fs afero.Fs) error {
	format := f.Format
	if format == 0 {
		format = howett.XMLFormat
	}

	data, err := encode(f.Root, format)
	if err != nil {
		return &WriteError{Path: f.Path, Err: err}
	}

	if err := afero.WriteFile(fs, f.Path, data, 0o644); err != nil {
		return &WriteError{Path: f.Path, Err: err}
	}

	return nil
}
