package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	// UnnamedFileName is returned when a name normalizes to nothing
	UnnamedFileName = "unnamed"
	// OtherSchemaPrefix groups schemas whose name yields no prefix
	OtherSchemaPrefix = "Other"
	// MaxSkillNameLength caps the bundle directory name
	MaxSkillNameLength = 64
)

var (
	hyphenRun    = regexp.MustCompile(`-{2,}`)
	nonAlnum     = regexp.MustCompile(`[^A-Za-z0-9]+`)
	pascalPrefix = regexp.MustCompile(`^[A-Z][a-z]+`)
)

// isFileNameSeparator reports whether r cannot appear in a document file name.
// Characters illegal on common filesystems, ASCII control characters and the
// remaining ASCII punctuation are separators; everything else is kept.
func isFileNameSeparator(r rune) bool {
	switch r {
	case ':', '<', '>', '|', '"', '*', '?', '\\', '/':
		return true
	case '-', '_', '.':
		return false
	}
	if r < 0x20 || r == 0x7f {
		return true
	}
	return r < unicode.MaxASCII && (unicode.IsPunct(r) || unicode.IsSymbol(r))
}

// ToFileName maps an arbitrary string to a filesystem-legal token.
// Letters in any script are preserved verbatim, including their case.
func ToFileName(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if isFileNameSeparator(r) || unicode.IsSpace(r) {
			return '-'
		}
		return r
	}, s)
	mapped = norm.NFC.String(mapped)
	mapped = hyphenRun.ReplaceAllString(mapped, "-")
	mapped = strings.Trim(mapped, "-")
	if mapped == "" {
		return UnnamedFileName
	}
	return mapped
}

// ToSkillName converts a title into a lower-case ASCII slug suitable for the
// bundle directory.
func ToSkillName(s string) string {
	slug := nonAlnum.ReplaceAllString(s, "-")
	slug = strings.ToLower(strings.Trim(slug, "-"))
	if len(slug) > MaxSkillNameLength {
		slug = strings.TrimRight(slug[:MaxSkillNameLength], "-")
	}
	if slug == "" {
		return UnnamedFileName
	}
	return slug
}

// ExtractSchemaPrefix derives the grouping key of a schema name:
// the leading PascalCase word, else the part before the first underscore,
// else the whole name.
func ExtractSchemaPrefix(name string) string {
	if name == "" {
		return OtherSchemaPrefix
	}
	if m := pascalPrefix.FindString(name); m != "" {
		return m
	}
	if before, _, found := strings.Cut(name, "_"); found && before != "" {
		return before
	}
	return name
}

// RefName returns the last segment of a JSON reference such as
// "#/components/schemas/User".
func RefName(ref string) string {
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

// FirstLine returns the first line of s, truncated to max runes.
func FirstLine(s string, max int) string {
	line, _, _ := strings.Cut(s, "\n")
	line = strings.TrimRight(line, "\r")
	runes := []rune(line)
	if len(runes) > max {
		return string(runes[:max])
	}
	return line
}
