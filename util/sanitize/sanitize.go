package sanitize

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	multiDashRegex       = regexp.MustCompile(`-+`)
	multiUnderscoreRegex = regexp.MustCompile(`_+`)
	invalidNameRegex     = regexp.MustCompile(`[^a-z0-9-]+`)
	invalidKeyRegex      = regexp.MustCompile(`[^A-Z0-9_]+`)
)

// ForFilename sanitizes a string for use in a filename (kebab-case).
func ForFilename(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "-")
	s = invalidNameRegex.ReplaceAllString(s, "")
	s = multiDashRegex.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 50 {
		s = s[:50]
	}
	return s
}

// ForUploadName sanitizes a client-supplied filename for storage on disk.
// The path is reduced to its base name so uploads cannot escape the upload
// directory, and the extension is preserved.
func ForUploadName(name string) string {
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	stem = ForFilename(stem)
	if stem == "" {
		stem = "upload"
	}

	// Keep only safe extension characters
	ext = strings.ToLower(ext)
	if !regexp.MustCompile(`^\.[a-z0-9]+$`).MatchString(ext) {
		ext = ""
	}

	return stem + ext
}

// ForEnvironmentKey sanitizes a string for use as an environment variable key.
func ForEnvironmentKey(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ToUpper(s)
	s = strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(s)
	s = invalidKeyRegex.ReplaceAllString(s, "_")
	s = multiUnderscoreRegex.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 0 && !regexp.MustCompile(`^[A-Z]`).MatchString(s) {
		s = "ENV_" + s
	}

	return s
}
