package transfer

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is a file format token.
type Format string

const (
	FormatPO  Format = "po"
	FormatCSV Format = "csv"
	FormatTGZ Format = "tgz"
)

// UnsupportedFormatError reports an unknown format token. It is
// returned before any input is read or output written.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format %q: must be one of po, csv, tgz", e.Format)
}

// ParseFormat validates a format token; "pot" is accepted as "po".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPO, FormatCSV, FormatTGZ:
		return f, nil
	case "pot":
		return FormatPO, nil
	}
	return "", &UnsupportedFormatError{Format: s}
}

// FormatFromPath derives the format from a file name extension.
func FormatFromPath(path string) (Format, error) {
	name := strings.ToLower(filepath.Base(path))
	if strings.HasSuffix(name, ".tar.gz") {
		return FormatTGZ, nil
	}
	return ParseFormat(strings.TrimPrefix(filepath.Ext(name), "."))
}
