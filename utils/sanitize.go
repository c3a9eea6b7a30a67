package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	contentPolicy = bluemonday.UGCPolicy()
	// textPolicy keeps no markup at all
	textPolicy = bluemonday.StrictPolicy()
)

// Sanitize cleans article HTML, keeping the user-generated-content subset.
func Sanitize(input string) string {
	return contentPolicy.Sanitize(input)
}

// SanitizeText strips every tag, for titles, descriptions and discussion text.
func SanitizeText(input string) string {
	return strings.TrimSpace(textPolicy.Sanitize(input))
}
