package utils

import "strings"

// NormalizeLabel folds a category label for comparison: trims, collapses inner
// whitespace and lower-cases. "&" and "and" are kept distinct.
func NormalizeLabel(raw string) string {
	fields := strings.Fields(raw)
	return strings.ToLower(strings.Join(fields, " "))
}
