package storage

import (
	"mime"
	"path/filepath"
	"strings"
)

// ContentTypeCSV is the MIME type used for export artifacts.
const ContentTypeCSV = "text/csv"

// DetectContentType determines the MIME type for a stored object.
//
// If providedType is non-empty it is used directly. Otherwise the key's
// extension is looked up, falling back to "application/octet-stream".
func DetectContentType(providedType, key string) string {
	if providedType != "" {
		return providedType
	}

	ext := strings.ToLower(filepath.Ext(key))
	if ext == ".csv" {
		return ContentTypeCSV
	}
	if contentType := mime.TypeByExtension(ext); contentType != "" {
		return contentType
	}

	return "application/octet-stream"
}

// IsCSV returns true if the content type is a CSV document.
func IsCSV(contentType string) bool {
	baseType := strings.Split(contentType, ";")[0]
	baseType = strings.TrimSpace(strings.ToLower(baseType))
	return baseType == ContentTypeCSV
}
