package util

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"unicode"
)

// maxNameRunes bounds a stored path segment. Longer names keep their tail
// so the extension survives.
const maxNameRunes = 120

// ErrInvalidName is returned for names that cannot become a path segment.
var ErrInvalidName = errors.New("invalid file name")

// OwnerKey maps an identity (guest id or token subject) to an opaque
// directory name so raw identities never appear in storage paths.
func OwnerKey(ownerID string) string {
	sum := sha256.Sum256([]byte(ownerID))
	return hex.EncodeToString(sum[:])
}

// SafeName turns an uploaded file name or a session id into a single path
// segment: separators become underscores and control characters are dropped.
func SafeName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidName
	}
	s := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	if s == "" {
		return "", ErrInvalidName
	}
	if runes := []rune(s); len(runes) > maxNameRunes {
		s = string(runes[len(runes)-maxNameRunes:])
	}
	return s, nil
}
