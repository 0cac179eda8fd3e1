package domain

// Field constants for mapstructure and JSON standardization of submissions.
const (
	KeyTemplateID = "template_id"
	KeyGroupID    = "group_id"
	KeyParty      = "party"
	KeyRejected   = "rejected"
	// KeyRanking holds an ordered list of variant ids, most preferred first.
	KeyRanking = "ranking"
	// KeyRanks holds an explicit {variant_id: rank} map.
	KeyRanks    = "ranks"
	KeyMetadata = "metadata"
)
