package validator

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxIDSize bounds template, group, party and variant identifiers.
	DefaultMaxIDSize = 256
	// EnvMaxIDSize is the environment variable to override the default
	EnvMaxIDSize = "CONCORD_MAX_ID_SIZE"
)

var (
	ErrIDTooLarge  = errors.New("identifier exceeds maximum allowed size")
	ErrInvalidUTF8 = errors.New("identifier contains invalid UTF-8 sequences")
)

// SanitizeID cleans an identifier coming from a capture UI by enforcing a size
// limit, validating UTF-8, trimming surrounding space and stripping control characters.
func SanitizeID(id string) (string, error) {
	limit := getMaxIDSize()
	if len(id) > limit {
		// Reject rather than truncate: a truncated id could alias another variant.
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrIDTooLarge, len(id), limit)
	}

	if !utf8.ValidString(id) {
		return "", ErrInvalidUTF8
	}

	id = strings.TrimSpace(id)

	// Fast path: no control characters.
	clean := true
	for _, r := range id {
		if unicode.IsControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return id, nil
	}

	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		if !unicode.IsControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func sanitizeAll(ids []string) ([]string, error) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		clean, err := SanitizeID(id)
		if err != nil {
			return nil, err
		}
		out = append(out, clean)
	}
	return out, nil
}

func getMaxIDSize() int {
	if val := os.Getenv(EnvMaxIDSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxIDSize
}
