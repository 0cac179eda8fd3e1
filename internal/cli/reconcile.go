package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/concord/internal/config"
	"github.com/aretw0/concord/internal/presentation/graph"
	"github.com/aretw0/concord/internal/presentation/tui"
	"github.com/aretw0/concord/pkg/adapters/file"
	"github.com/aretw0/concord/pkg/domain"
	"github.com/aretw0/concord/pkg/ports"
)

// Output formats accepted by RunReconcile.
const (
	FormatJSON     = "json"
	FormatPretty   = "pretty"
	FormatMarkdown = "markdown"
	FormatMermaid  = "mermaid"
)

var (
	// ErrRejectedSubmissions is returned when at least one submission failed
	// validation. The results are still written.
	ErrRejectedSubmissions = errors.New("one or more submissions were rejected")
	// ErrBlocked is returned in strict mode when a template is blocked.
	ErrBlocked = errors.New("one or more templates are blocked")
)

// ReconcileOptions configures a one-shot reconciliation of a submissions file.
type ReconcileOptions struct {
	Catalog     config.CatalogConfig
	Engine      config.EngineConfig
	Preferences string
	// TemplateID restricts the run to one template. When empty, every template
	// named by the submissions is reconciled, or the whole catalog if none is named.
	TemplateID string
	Format     string
	// Styled enables ANSI styling for the pretty format.
	Styled bool
	// ShowAll draws every variant in the mermaid format, not only the selected ones.
	ShowAll bool
	// Strict turns a blocked template into ErrBlocked.
	Strict bool
	// PublishDir, when set, also writes each result as a JSON file there.
	PublishDir string
}

// RunReconcile reconciles a batch of submissions against the catalog and writes
// the results to w in the requested format.
func RunReconcile(ctx context.Context, opts ReconcileOptions, w io.Writer, logger *slog.Logger) ([]domain.TemplateResult, error) {
	catalog, _, err := OpenCatalog(opts.Catalog)
	if err != nil {
		return nil, err
	}
	batch, err := file.LoadSubmissions(opts.Preferences)
	if err != nil {
		return nil, err
	}
	engine, err := NewEngine(opts.Engine, logger, domain.LifecycleHooks{})
	if err != nil {
		return nil, err
	}

	ids, err := templateIDs(ctx, catalog, batch, opts.TemplateID)
	if err != nil {
		return nil, err
	}

	var sink ports.ResultSink
	if opts.PublishDir != "" {
		sink = file.NewSink(opts.PublishDir)
	}

	templates := make([]domain.Template, 0, len(ids))
	results := make([]domain.TemplateResult, 0, len(ids))
	for _, id := range ids {
		tpl, err := catalog.GetTemplate(ctx, id)
		if err != nil {
			return nil, err
		}
		result := engine.ReconcileTemplate(ctx, tpl, batch.ForTemplate(id))
		logger.Info("template reconciled", "template_id", id, "status", result.Status, "blocking", result.Blocking())
		if sink != nil {
			if err := sink.Publish(ctx, result); err != nil {
				return nil, fmt.Errorf("failed to publish %s: %w", id, err)
			}
		}
		templates = append(templates, tpl)
		results = append(results, result)
	}

	if err := writeResults(w, opts, templates, results); err != nil {
		return results, err
	}
	return results, exitError(results, opts.Strict)
}

func templateIDs(ctx context.Context, catalog ports.CatalogLoader, batch file.Batch, only string) ([]string, error) {
	if only != "" {
		return []string{only}, nil
	}
	if ids := batch.TemplateIDs(); len(ids) > 0 {
		return ids, nil
	}
	ids, err := catalog.ListTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	if len(ids) == 0 {
		return nil, errors.New("catalog has no templates")
	}
	return ids, nil
}

func writeResults(w io.Writer, opts ReconcileOptions, templates []domain.Template, results []domain.TemplateResult) error {
	switch strings.ToLower(opts.Format) {
	case "", FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if len(results) == 1 {
			return enc.Encode(results[0])
		}
		return enc.Encode(results)

	case FormatMarkdown:
		for _, r := range results {
			if _, err := io.WriteString(w, tui.ResultMarkdown(r)+"\n"); err != nil {
				return err
			}
		}
		return nil

	case FormatPretty:
		render, err := tui.NewRenderer(opts.Styled)
		if err != nil {
			return err
		}
		for _, r := range results {
			out, err := render(tui.ResultMarkdown(r))
			if err != nil {
				return fmt.Errorf("failed to render %s: %w", r.TemplateID, err)
			}
			fmt.Fprintf(w, "%s %s\n%s", tui.StatusBadge(r.Status, opts.Styled), r.TemplateID, out)
		}
		return nil

	case FormatMermaid:
		for i, r := range results {
			if _, err := io.WriteString(w, graph.GenerateMermaid(templates[i], r, opts.ShowAll)); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown format %q (want %s, %s, %s or %s)", opts.Format, FormatJSON, FormatPretty, FormatMarkdown, FormatMermaid)
}

func exitError(results []domain.TemplateResult, strict bool) error {
	blocked := false
	for _, r := range results {
		for _, g := range r.Groups {
			if g.Outcome.Reason == domain.ReasonInvalidPreference {
				return ErrRejectedSubmissions
			}
		}
		if r.Status == domain.StatusBlocked {
			blocked = true
		}
	}
	if strict && blocked {
		return ErrBlocked
	}
	return nil
}
