package validator

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/aretw0/concord/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// ErrMalformedSubmission is returned when a raw submission cannot be decoded
// into a preference record at all (wrong shapes, unknown fields).
var ErrMalformedSubmission = errors.New("malformed submission")

// Submission is a decoded capture payload: the preference plus free-form
// metadata supplied by the capture UI (e.g. who pressed submit).
type Submission struct {
	Preference domain.PartyPreference
	Metadata   map[string]string
}

// rawSubmission mirrors the loose wire shape. A ranking may arrive as an
// ordered list or as an explicit rank map, never both.
type rawSubmission struct {
	TemplateID string            `mapstructure:"template_id"`
	GroupID    string            `mapstructure:"group_id"`
	Party      string            `mapstructure:"party"`
	Rejected   []string          `mapstructure:"rejected"`
	Ranking    []string          `mapstructure:"ranking"`
	Ranks      map[string]int    `mapstructure:"ranks"`
	Metadata   map[string]string `mapstructure:"metadata"`
}

// wholeNumbers stops the weak decoder from truncating 1.9 into rank 1.
func wholeNumbers(_ reflect.Kind, to reflect.Kind, data any) (any, error) {
	if to < reflect.Int || to > reflect.Uint64 {
		return data, nil
	}
	var f float64
	switch v := data.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	default:
		return data, nil
	}
	if math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return nil, fmt.Errorf("%v is not a whole number", data)
	}
	return data, nil
}

// Decode converts whatever the capture UI sent into a typed submission.
// It does not check the submission against the catalog; call Validate for that.
func Decode(input map[string]any) (Submission, error) {
	var raw rawSubmission
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &raw,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook:       wholeNumbers,
	})
	if err != nil {
		return Submission{}, fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := dec.Decode(input); err != nil {
		return Submission{}, fmt.Errorf("%w: %v", ErrMalformedSubmission, err)
	}
	if raw.Ranking != nil && raw.Ranks != nil {
		return Submission{}, fmt.Errorf("%w: both %q and %q given", ErrMalformedSubmission, domain.KeyRanking, domain.KeyRanks)
	}

	ids := []*string{&raw.TemplateID, &raw.GroupID, &raw.Party}
	for _, p := range ids {
		clean, err := SanitizeID(*p)
		if err != nil {
			return Submission{}, fmt.Errorf("%w: %v", ErrMalformedSubmission, err)
		}
		*p = clean
	}

	rejected, err := sanitizeAll(raw.Rejected)
	if err != nil {
		return Submission{}, fmt.Errorf("%w: %v", ErrMalformedSubmission, err)
	}

	var ranking []domain.RankedVariant
	if raw.Ranks != nil {
		ranking = make([]domain.RankedVariant, 0, len(raw.Ranks))
		for id, rank := range raw.Ranks {
			clean, err := SanitizeID(id)
			if err != nil {
				return Submission{}, fmt.Errorf("%w: %v", ErrMalformedSubmission, err)
			}
			ranking = append(ranking, domain.RankedVariant{VariantID: clean, Rank: rank})
		}
		sort.Slice(ranking, func(i, j int) bool {
			if ranking[i].Rank != ranking[j].Rank {
				return ranking[i].Rank < ranking[j].Rank
			}
			return ranking[i].VariantID < ranking[j].VariantID
		})
	} else {
		order, err := sanitizeAll(raw.Ranking)
		if err != nil {
			return Submission{}, fmt.Errorf("%w: %v", ErrMalformedSubmission, err)
		}
		ranking = domain.RankingFromOrder(order)
	}

	// An unknown party is kept verbatim so Validate reports it as a violation.
	party, err := domain.ParseParty(raw.Party)
	if err != nil {
		party = domain.Party(raw.Party)
	}

	return Submission{
		Preference: domain.PartyPreference{
			TemplateID: raw.TemplateID,
			GroupID:    raw.GroupID,
			Party:      party,
			Rejected:   rejected,
			Ranking:    ranking,
		},
		Metadata: raw.Metadata,
	}, nil
}
