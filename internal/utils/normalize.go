package utils

import (
	"errors"
	"path"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var nonName = regexp.MustCompile(`[^a-z0-9._\-]+`)
var multiDash = regexp.MustCompile(`\-+`)

// ErrInvalidObjectName is returned when nothing usable is left of a file name.
var ErrInvalidObjectName = errors.New("invalid object name")

// ObjectName turns a client supplied file name into a safe storage object name.
// Accents are folded, case is lowered, separators become dashes and any
// directory part is dropped.
func ObjectName(name string) (string, error) {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	name = path.Base(name)
	if name == "." || name == "/" {
		return "", ErrInvalidObjectName
	}

	t := norm.NFKD.String(name)
	b := make([]rune, 0, len(t))
	for _, r := range t {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b = append(b, unicode.ToLower(r))
		case r == '.' || r == '_':
			b = append(b, r)
		case unicode.IsSpace(r) || r == '-':
			b = append(b, '-')
		}
	}
	out := nonName.ReplaceAllString(string(b), "-")
	out = multiDash.ReplaceAllString(out, "-")
	out = strings.Trim(out, "-.")
	if out == "" {
		return "", ErrInvalidObjectName
	}
	return out, nil
}

// ObjectPath joins a prefix, an owner id and a normalized file name.
func ObjectPath(prefix, owner, name string) (string, error) {
	obj, err := ObjectName(name)
	if err != nil {
		return "", err
	}
	owner = strings.Trim(strings.TrimSpace(owner), "/")
	if owner == "" || strings.Contains(owner, "/") || owner == ".." {
		return "", ErrInvalidObjectName
	}
	parts := []string{}
	if p := strings.Trim(prefix, "/"); p != "" {
		parts = append(parts, p)
	}
	parts = append(parts, owner, obj)
	return strings.Join(parts, "/"), nil
}
