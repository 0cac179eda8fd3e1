package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/concord/internal/config"
	"github.com/aretw0/concord/pkg/adapters/file"
	"github.com/aretw0/concord/pkg/domain"
	"github.com/aretw0/concord/pkg/ports"
	"github.com/aretw0/concord/pkg/validator"
)

// ValidateOptions configures a dry-run check of a submissions file.
type ValidateOptions struct {
	Catalog     config.CatalogConfig
	Preferences string
	// TemplateID is assumed for submissions that do not name a template.
	TemplateID string
	Format     string
}

// SubmissionReport is the verdict for one submission.
type SubmissionReport struct {
	TemplateID string                `json:"template_id"`
	GroupID    string                `json:"group_id"`
	Party      domain.Party          `json:"party"`
	Valid      bool                  `json:"valid"`
	Error      string                `json:"error,omitempty"`
	Violations []validator.Violation `json:"violations,omitempty"`
}

// RunValidate checks every submission in a file against the catalog without
// reconciling anything. It returns ErrRejectedSubmissions if any is invalid.
func RunValidate(ctx context.Context, opts ValidateOptions, w io.Writer) ([]SubmissionReport, error) {
	catalog, _, err := OpenCatalog(opts.Catalog)
	if err != nil {
		return nil, err
	}
	batch, err := file.LoadSubmissions(opts.Preferences)
	if err != nil {
		return nil, err
	}

	reports := make([]SubmissionReport, 0, len(batch.Submissions))
	failed := false
	for _, sub := range batch.Submissions {
		pref := sub.Preference
		report := SubmissionReport{TemplateID: pref.TemplateID, GroupID: pref.GroupID, Party: pref.Party}
		if report.TemplateID == "" {
			report.TemplateID = opts.TemplateID
		}

		err := validateOne(ctx, catalog, report.TemplateID, pref)
		report.Valid = err == nil
		if err != nil {
			failed = true
			report.Error = err.Error()
			report.Violations = validator.Violations(err)
		}
		reports = append(reports, report)
	}

	if err := writeReports(w, opts.Format, reports); err != nil {
		return reports, err
	}
	if failed {
		return reports, ErrRejectedSubmissions
	}
	return reports, nil
}

func validateOne(ctx context.Context, catalog ports.CatalogLoader, templateID string, pref domain.PartyPreference) error {
	if templateID == "" {
		return errors.New("submission names no template and no default was given")
	}
	tpl, err := catalog.GetTemplate(ctx, templateID)
	if err != nil {
		return err
	}
	group, ok := tpl.Group(pref.GroupID)
	if !ok {
		return fmt.Errorf("%w: %q in template %q", domain.ErrGroupNotFound, pref.GroupID, tpl.ID)
	}
	_, err = validator.ValidateFor(tpl.ID, group, pref)
	return err
}

func writeReports(w io.Writer, format string, reports []SubmissionReport) error {
	if strings.EqualFold(format, FormatJSON) {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}

	valid := 0
	for _, r := range reports {
		target := fmt.Sprintf("%s/%s/%s", r.TemplateID, r.GroupID, r.Party)
		if r.Valid {
			valid++
			fmt.Fprintf(w, "ok    %s\n", target)
			continue
		}
		if len(r.Violations) == 0 {
			fmt.Fprintf(w, "FAIL  %s: %s\n", target, r.Error)
			continue
		}
		fmt.Fprintf(w, "FAIL  %s\n", target)
		for _, v := range r.Violations {
			fmt.Fprintf(w, "      - %s\n", v.Error())
		}
	}
	printSystemMessage(w, "%d of %d submissions valid.", valid, len(reports))
	return nil
}
