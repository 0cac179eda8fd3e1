package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/concord/pkg/domain"
)

// Code identifies the kind of rule a submission broke.
type Code string

const (
	CodeGroupMismatch     Code = "group_mismatch"
	CodeUnknownParty      Code = "unknown_party"
	CodeUnknownVariant    Code = "unknown_variant"
	CodeDuplicateVariant  Code = "duplicate_variant"
	CodeDuplicateRank     Code = "duplicate_rank"
	CodeRankGap           Code = "rank_gap"
	CodePartitionMismatch Code = "partition_mismatch"
)

// Violation represents a single rule failure inside a submission.
type Violation struct {
	Code      Code   `json:"code"`
	VariantID string `json:"variant_id,omitempty"`
	Rank      int    `json:"rank,omitempty"`
	Message   string `json:"message"`
}

func (v Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Code, v.Message)
}

// InvalidPreferenceError aggregates every violation found in one submission.
type InvalidPreferenceError struct {
	GroupID    string
	Party      domain.Party
	Violations []Violation
}

func (e *InvalidPreferenceError) Error() string {
	if len(e.Violations) == 1 {
		return fmt.Sprintf("invalid preference for group %q (%s): %s", e.GroupID, e.Party, e.Violations[0].Error())
	}
	var b strings.Builder
	fmt.Fprintf(&b, "invalid preference for group %q (%s): %d violations:\n", e.GroupID, e.Party, len(e.Violations))
	for i, v := range e.Violations {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, v.Error())
	}
	return b.String()
}

// Unwrap lets errors.Is match domain.ErrInvalidPreference.
func (e *InvalidPreferenceError) Unwrap() error {
	return domain.ErrInvalidPreference
}

// Codes returns the violation codes in report order.
func (e *InvalidPreferenceError) Codes() []string {
	codes := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		codes[i] = string(v.Code)
	}
	return codes
}

// Violations returns the violations carried by err, or nil if err is not an
// InvalidPreferenceError.
func Violations(err error) []Violation {
	var inv *InvalidPreferenceError
	if errors.As(err, &inv) {
		return inv.Violations
	}
	return nil
}
