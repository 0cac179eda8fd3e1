package domain

// Submissions holds raw preferences for one template keyed by clause group id
// and party.
type Submissions map[string]map[Party]PartyPreference

// Add records a submission under its own group and party, replacing any earlier one.
func (s Submissions) Add(p PartyPreference) {
	byParty, ok := s[p.GroupID]
	if !ok {
		byParty = make(map[Party]PartyPreference, len(Parties))
		s[p.GroupID] = byParty
	}
	byParty[p.Party] = p
}

// Count returns how many submissions are recorded for a group.
func (s Submissions) Count(groupID string) int {
	return len(s[groupID])
}
