package dictionary

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// FileFormat represents different dictionary file formats
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatText               // code candidates... lines
	FormatBinary             // msgpack compiled table
)

// FormatInfo contains metadata about a dictionary file format
type FormatInfo struct {
	Format      FileFormat
	Description string
	Extensions  []string
	MinSize     int64
}

var supportedFormats = []FormatInfo{
	{
		Format:      FormatText,
		Description: "Plain Text Dictionary",
		Extensions:  []string{".dic", ".txt"},
		MinSize:     3, // "a 字" at minimum
	},
	{
		Format:      FormatBinary,
		Description: "Compiled Binary Dictionary",
		Extensions:  []string{".bin"},
		MinSize:     8,
	},
}

// binaryMagic tags compiled dictionaries so unrelated .bin files are rejected.
const (
	binaryMagic   = "fqwb-dict"
	binaryVersion = 1
)

type binaryDictionary struct {
	Magic   string  `msgpack:"magic"`
	Version int     `msgpack:"version"`
	Name    string  `msgpack:"name"`
	Entries []Entry `msgpack:"entries"`
}

// DetectFileFormat returns the format implied by the file extension.
func DetectFileFormat(filename string) FileFormat {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, info := range supportedFormats {
		for _, e := range info.Extensions {
			if ext == e {
				return info.Format
			}
		}
	}
	return FormatUnknown
}

// IsDictionaryFile reports whether filename has a dictionary extension.
func IsDictionaryFile(filename string) bool {
	return DetectFileFormat(filename) != FormatUnknown
}

// NameFromPath returns the dictionary name for a file: its stem.
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// extensionRank orders files sharing a stem; text sources win over
// compiled tables.
func extensionRank(filename string) int {
	ext := strings.ToLower(filepath.Ext(filename))
	rank := 0
	for _, info := range supportedFormats {
		for _, e := range info.Extensions {
			if ext == e {
				return rank
			}
			rank++
		}
	}
	return rank
}

// ValidateFileFormat checks that a file exists, has a dictionary extension and
// is large enough for its format. A truncated file wraps ErrMalformed.
func ValidateFileFormat(filename string) error {
	format := DetectFileFormat(filename)
	info, ok := GetFormatInfo(format)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}

	stat, err := os.Stat(filename)
	if err != nil {
		return err
	}
	if stat.Size() < info.MinSize {
		return fmt.Errorf("%w: %d bytes is too small for a %s (minimum %d)",
			ErrMalformed, stat.Size(), strings.ToLower(info.Description), info.MinSize)
	}
	return nil
}

// GetFormatInfo returns information about a specific format
func GetFormatInfo(format FileFormat) (FormatInfo, bool) {
	for _, info := range supportedFormats {
		if info.Format == format {
			return info, true
		}
	}
	return FormatInfo{}, false
}

// ListSupportedFormats returns all supported formats
func ListSupportedFormats() []FormatInfo {
	formats := make([]FormatInfo, len(supportedFormats))
	copy(formats, supportedFormats)
	return formats
}

// WriteBinary writes d as a compiled msgpack table.
func WriteBinary(w io.Writer, d *Dictionary) error {
	return msgpack.NewEncoder(w).Encode(&binaryDictionary{
		Magic:   binaryMagic,
		Version: binaryVersion,
		Name:    d.Name(),
		Entries: d.Entries(),
	})
}

// ReadBinary reads a table written by WriteBinary. name overrides the
// stored name when non-empty.
func ReadBinary(r io.Reader, name string) (*Dictionary, error) {
	var bd binaryDictionary
	if err := msgpack.NewDecoder(r).Decode(&bd); err != nil {
		return nil, &LoadError{Name: name, Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}
	if bd.Magic != binaryMagic {
		return nil, &LoadError{Name: name, Err: fmt.Errorf("%w: not a compiled dictionary", ErrMalformed)}
	}
	if bd.Version != binaryVersion {
		return nil, &LoadError{Name: name, Err: fmt.Errorf("%w: unsupported version %d", ErrMalformed, bd.Version)}
	}
	if name == "" {
		name = bd.Name
	}
	return FromEntries(name, bd.Entries)
}
