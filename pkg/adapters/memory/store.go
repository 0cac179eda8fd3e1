package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/concord/pkg/domain"
)

type prefKey struct {
	templateID string
	groupID    string
	party      domain.Party
}

// Store implements ports.PreferenceStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[prefKey][]domain.StoredPreference
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[prefKey][]domain.StoredPreference),
	}
}

// Save appends a version in memory.
func (s *Store) Save(_ context.Context, pref domain.StoredPreference) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := clone(pref)

	k := prefKey{pref.TemplateID, pref.GroupID, pref.Party}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[k] = append(s.data[k], copied)
	return nil
}

// Latest returns the newest version.
func (s *Store) Latest(_ context.Context, templateID, groupID string, party domain.Party) (domain.StoredPreference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := s.data[prefKey{templateID, groupID, party}]
	if len(versions) == 0 {
		return domain.StoredPreference{}, domain.ErrPreferenceNotFound
	}
	return clone(versions[len(versions)-1]), nil
}

// History returns every version, oldest first.
func (s *Store) History(_ context.Context, templateID, groupID string, party domain.Party) ([]domain.StoredPreference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := s.data[prefKey{templateID, groupID, party}]
	out := make([]domain.StoredPreference, len(versions))
	for i, v := range versions {
		out[i] = clone(v)
	}
	return out, nil
}

// ListLatest returns the latest version of every group and party of the template.
func (s *Store) ListLatest(_ context.Context, templateID string) ([]domain.StoredPreference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.StoredPreference, 0)
	for k, versions := range s.data {
		if k.templateID != templateID || len(versions) == 0 {
			continue
		}
		out = append(out, clone(versions[len(versions)-1]))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GroupID != out[j].GroupID {
			return out[i].GroupID < out[j].GroupID
		}
		return out[i].Party < out[j].Party
	})
	return out, nil
}

func clone(p domain.StoredPreference) domain.StoredPreference {
	ret := p
	if p.Rejected != nil {
		ret.Rejected = make([]string, len(p.Rejected))
		copy(ret.Rejected, p.Rejected)
	}
	if p.Ranking != nil {
		ret.Ranking = make([]domain.RankedVariant, len(p.Ranking))
		copy(ret.Ranking, p.Ranking)
	}
	if p.Metadata != nil {
		ret.Metadata = make(map[string]string, len(p.Metadata))
		for k, v := range p.Metadata {
			ret.Metadata[k] = v
		}
	}
	return ret
}
