package constants

import (
	"path/filepath"
	"strings"
)

// Spreadsheet formats accepted by the decoder.
const (
	XLSX = "XLSX"
	CSV  = "CSV"
)

// FileTypes holds the formats a source file may decode as.
var FileTypes = []string{XLSX, CSV}

// AllowedExtensions maps lowercase extensions (without '.') to their format.
var AllowedExtensions = map[string]string{
	"xlsx": XLSX,
	"xlsm": XLSX,
	"xltx": XLSX,
	"xltm": XLSX,
	"csv":  CSV,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapPathToFormat returns the format for a storage path, or "" when unsupported.
func MapPathToFormat(path string) string {
	return AllowedExtensions[NormalizeExt(filepath.Ext(path))]
}
