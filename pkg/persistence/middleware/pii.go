package middleware

import (
	"context"
	"maps"
	"regexp"

	"github.com/aretw0/concord/pkg/domain"
	"github.com/aretw0/concord/pkg/ports"
)

// Mask replaces redacted metadata values.
const Mask = "***"

type piiMiddleware struct {
	next     ports.PreferenceStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks metadata values whose key
// matches one of the patterns. It panics on a pattern that does not compile.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.PreferenceStore) ports.PreferenceStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, pref domain.StoredPreference) error {
	// The caller keeps its own map untouched.
	if len(pref.Metadata) > 0 {
		pref.Metadata = maps.Clone(pref.Metadata)
		maskMetadata(pref.Metadata, m.patterns)
	}
	return m.next.Save(ctx, pref)
}

func (m *piiMiddleware) Latest(ctx context.Context, templateID, groupID string, party domain.Party) (domain.StoredPreference, error) {
	return m.next.Latest(ctx, templateID, groupID, party)
}

func (m *piiMiddleware) History(ctx context.Context, templateID, groupID string, party domain.Party) ([]domain.StoredPreference, error) {
	return m.next.History(ctx, templateID, groupID, party)
}

func (m *piiMiddleware) ListLatest(ctx context.Context, templateID string) ([]domain.StoredPreference, error) {
	return m.next.ListLatest(ctx, templateID)
}

func maskMetadata(md map[string]string, patterns []*regexp.Regexp) {
	for k := range md {
		for _, p := range patterns {
			if p.MatchString(k) {
				md[k] = Mask
				break
			}
		}
	}
}
