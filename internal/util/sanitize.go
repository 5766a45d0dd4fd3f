// Package util holds small helpers for emitting D2 source.
package util

import (
	"regexp"
	"strings"
)

var (
	idSeparators = strings.NewReplacer(" ", "-", ".", "-", "/", "-", "@", "-", `\x2d`, "-")
	idInvalid    = regexp.MustCompile(`[^a-z0-9_-]`)
	idDashes     = regexp.MustCompile(`-{2,}`)
)

// SanitizeID turns a service or unit name into a D2 identifier.
// "network-online.target" becomes "network-online-target" and a systemd
// escaped dash ("\x2d") is folded back into a plain one.
func SanitizeID(s string) string {
	s = idSeparators.Replace(strings.ToLower(s))
	s = idInvalid.ReplaceAllString(s, "")
	s = strings.Trim(idDashes.ReplaceAllString(s, "-"), "-")
	if s == "" {
		return "unknown"
	}
	return s
}

// Quote wraps a label in double quotes for D2.
func Quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
