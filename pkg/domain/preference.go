package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Party identifies one of the two negotiating roles.
type Party string

const (
	PartyA Party = "party_a"
	PartyB Party = "party_b"
)

// Parties lists both roles in a stable order.
var Parties = [2]Party{PartyA, PartyB}

// Other returns the counterpart role.
func (p Party) Other() Party {
	if p == PartyA {
		return PartyB
	}
	return PartyA
}

// Valid reports whether p is one of the two roles.
func (p Party) Valid() bool {
	return p == PartyA || p == PartyB
}

// ParseParty normalizes a party name. It accepts the canonical names as well as
// the short forms "a" and "b", case-insensitively.
func ParseParty(s string) (Party, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(PartyA), "a", "party-a":
		return PartyA, nil
	case string(PartyB), "b", "party-b":
		return PartyB, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownParty, s)
}

// RankedVariant is one entry of a ranking. Rank is 1-based; 1 is most preferred.
type RankedVariant struct {
	VariantID string `json:"variant_id" yaml:"variant_id" mapstructure:"variant_id"`
	Rank      int    `json:"rank" yaml:"rank" mapstructure:"rank"`
}

// RankingFromOrder converts an ordered list of ids (most preferred first) into explicit ranks.
func RankingFromOrder(ids []string) []RankedVariant {
	ranking := make([]RankedVariant, len(ids))
	for i, id := range ids {
		ranking[i] = RankedVariant{VariantID: id, Rank: i + 1}
	}
	return ranking
}

// PartyPreference is a raw submission as received from preference capture.
// It is untrusted until it passes validation.
type PartyPreference struct {
	TemplateID string          `json:"template_id" yaml:"template_id" mapstructure:"template_id"`
	GroupID    string          `json:"group_id" yaml:"group_id" mapstructure:"group_id"`
	Party      Party           `json:"party" yaml:"party" mapstructure:"party"`
	Rejected   []string        `json:"rejected" yaml:"rejected" mapstructure:"rejected"`
	Ranking    []RankedVariant `json:"ranking" yaml:"ranking" mapstructure:"ranking"`
}

// Preference is a validated submission. Ranks and Rejected partition the
// clause group's variant set exactly; Ranks holds a dense 1..N sequence.
type Preference struct {
	TemplateID string              `json:"template_id"`
	GroupID    string              `json:"group_id"`
	Party      Party               `json:"party"`
	Ranks      map[string]int      `json:"ranks"`
	Rejected   map[string]struct{} `json:"-"`
	// Top is the rank-1 variant, empty when every variant was rejected.
	Top string `json:"top,omitempty"`
}

// Rank returns the variant's rank, or false when the party rejected it.
func (p Preference) Rank(id string) (int, bool) {
	r, ok := p.Ranks[id]
	return r, ok
}

// Ranked returns the ranked variant ids, most preferred first.
func (p Preference) Ranked() []string {
	ids := make([]string, 0, len(p.Ranks))
	for id := range p.Ranks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return p.Ranks[ids[i]] < p.Ranks[ids[j]] })
	return ids
}

// RejectedIDs returns the rejected variant ids in lexical order.
func (p Preference) RejectedIDs() []string {
	ids := make([]string, 0, len(p.Rejected))
	for id := range p.Rejected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// PartyPreference converts the normalized form back into a submission.
func (p Preference) PartyPreference() PartyPreference {
	return PartyPreference{
		TemplateID: p.TemplateID,
		GroupID:    p.GroupID,
		Party:      p.Party,
		Rejected:   p.RejectedIDs(),
		Ranking:    RankingFromOrder(p.Ranked()),
	}
}

// StoredPreference is one persisted version of a party's submission.
// Versions are immutable; a resubmission supersedes the previous version.
type StoredPreference struct {
	PartyPreference

	Version     string            `json:"version"`
	SubmittedAt time.Time         `json:"submitted_at"`
	Metadata    map[string]string `json:"metadata,omitempty"`

	// Sealed carries the encrypted submission when an encryption middleware is in use.
	Sealed string `json:"sealed,omitempty"`
}
