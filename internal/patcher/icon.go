package patcher

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// Format is the encoding of an icon image.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// ImageConversionError is returned when an icon cannot be read or turned into a PNG.
type ImageConversionError struct {
	Path string
	Err  error
}

// Error implements error.
func (e *ImageConversionError) Error() string {
	return fmt.Sprintf("failed to convert icon [%s] to PNG: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ImageConversionError) Unwrap() error {
	return e.Err
}

// IconAsset is a source image chosen by the user.
type IconAsset struct {
	Path   string // Path of the source image.
	Format Format // Format of the source image.
	data   []byte
}

// ReadIcon reads the image at p and determines its format from its content, falling back
// to the file extension when the content is not recognized.
func ReadIcon(fs afero.Fs, p string) (*IconAsset, error) {
	data, err := afero.ReadFile(fs, p)
	if err != nil {
		return nil, &ImageConversionError{Path: p, Err: err}
	}

	format, err := detectFormat(p, data)
	if err != nil {
		return nil, &ImageConversionError{Path: p, Err: err}
	}

	return &IconAsset{Path: p, Format: format, data: data}, nil
}

// detectFormat sniffs the image format.
func detectFormat(p string, data []byte) (Format, error) {
	_, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err == nil {
		switch name {
		case "png":
			return FormatPNG, nil
		case "jpeg":
			return FormatJPEG, nil
		default:
			return "", fmt.Errorf("unsupported image format [%s]", name)
		}
	}

	switch strings.ToLower(path.Ext(p)) {
	case ".png":
		return FormatPNG, nil
	case ".jpg", ".jpeg":
		return FormatJPEG, nil
	}

	return "", fmt.Errorf("detect image format: %w", err)
}

// PNG returns the icon encoded as PNG. PNG sources are returned byte for byte, JPEG
// sources are decoded and re-encoded.
func (a *IconAsset) PNG() ([]byte, error) {
	if a.Format == FormatPNG {
		return a.data, nil
	}

	img, err := jpeg.Decode(bytes.NewReader(a.data))
	if err != nil {
		return nil, &ImageConversionError{Path: a.Path, Err: fmt.Errorf("decode JPEG: %w", err)}
	}

	var buf bytes.Buffer

	if err := png.Encode(&buf, img); err != nil {
		return nil, &ImageConversionError{Path: a.Path, Err: fmt.Errorf("encode PNG: %w", err)}
	}

	return buf.Bytes(), nil
}
