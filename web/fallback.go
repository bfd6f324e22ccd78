package web

import (
	_ "embed"
)

//go:embed fallback.csv
var fallbackCSV string

// FallbackCSV is the offline dataset served when the row store is empty or
// unreachable. It uses the same header and columns as the live sheet.
func FallbackCSV() string {
	return fallbackCSV
}
