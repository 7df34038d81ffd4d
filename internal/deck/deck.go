// Package deck owns the presentation container format: it extracts slide
// text from an uploaded .pptx archive (a zip of per-slide XML parts) and
// renders a report's slides back into a new archive. It is a stateless
// transform in both directions; all section semantics live in the codec
// package.
package deck

import (
	"bytes"
	"errors"
	"path"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for uploads that are not
	// extension-flagged as the supported container.
	ErrUnsupportedFormat = errors.New("deck: only .pptx files are supported")

	// ErrLegacyFormat is returned for the legacy single-file binary
	// presentation format, which lacks the zip/XML structure.
	ErrLegacyFormat = errors.New("deck: legacy .ppt binary format is not supported, re-save as .pptx")

	// ErrNotArchive is returned when the upload claims the right
	// extension but is not a readable zip archive.
	ErrNotArchive = errors.New("deck: file is not a valid presentation archive")
)

// oleMagic is the compound-file header of the legacy binary format.
var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// CheckFilename validates the upload's extension before any bytes are
// read.
func CheckFilename(name string) error {
	switch strings.ToLower(path.Ext(name)) {
	case ".pptx":
		return nil
	case ".ppt":
		return ErrLegacyFormat
	default:
		return ErrUnsupportedFormat
	}
}

// sniffLegacy reports whether data starts with the legacy compound-file
// magic.
func sniffLegacy(data []byte) bool {
	return len(data) >= len(oleMagic) && bytes.Equal(data[:len(oleMagic)], oleMagic)
}
