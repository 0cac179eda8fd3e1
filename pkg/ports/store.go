package ports

import (
	"context"

	"github.com/aretw0/concord/pkg/domain"
)

// PreferenceStore persists party submissions. Every Save appends a new,
// immutable version; the latest version per (template, group, party) is the
// one that counts.
type PreferenceStore interface {
	// Save appends a version. The caller assigns Version and SubmittedAt.
	Save(ctx context.Context, pref domain.StoredPreference) error

	// Latest returns the most recent version.
	// Returns domain.ErrPreferenceNotFound if the party never submitted.
	Latest(ctx context.Context, templateID, groupID string, party domain.Party) (domain.StoredPreference, error)

	// History returns every version, oldest first. It is empty, not an error,
	// when nothing was submitted.
	History(ctx context.Context, templateID, groupID string, party domain.Party) ([]domain.StoredPreference, error)

	// ListLatest returns the latest version of every (group, party) submitted
	// for the template, ordered by group id then party.
	ListLatest(ctx context.Context, templateID string) ([]domain.StoredPreference, error)
}
