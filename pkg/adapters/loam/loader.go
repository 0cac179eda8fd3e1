package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/concord/pkg/domain"
	"github.com/aretw0/concord/pkg/dsl"
	"github.com/aretw0/loam"
	"github.com/mitchellh/mapstructure"
)

// Loader adapts the Loam library to the Concord CatalogLoader interface.
type Loader struct {
	Repo *loam.TypedRepository[DocumentMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[DocumentMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a read-only Loam repository at path and wraps it.
func Open(path string) (*Loader, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	// Strict mode keeps numeric types consistent across Markdown and JSON documents.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[DocumentMetadata](repo)), nil
}

// GetTemplate loads a template document and resolves its clause groups.
func (l *Loader) GetTemplate(ctx context.Context, id string) (domain.Template, error) {
	doc, err := l.Repo.Get(ctx, id)
	if err != nil {
		return domain.Template{}, fmt.Errorf("%w: %s: %v", domain.ErrTemplateNotFound, id, err)
	}
	if doc.Data.kind() != KindTemplate {
		return domain.Template{}, fmt.Errorf("%w: %s is a %s document", domain.ErrTemplateNotFound, id, doc.Data.kind())
	}

	rawID := doc.Data.ID
	if rawID == "" {
		rawID = doc.ID
	}
	tplID := trimExtension(rawID)

	groups, err := l.resolveGroups(ctx, tplID, doc.Data.Groups)
	if err != nil {
		return domain.Template{}, err
	}

	// The builder enforces unique group and variant ids.
	b := dsl.Template(tplID, doc.Data.Label)
	for _, g := range groups {
		gb := b.Group(g.ID, g.Label)
		for _, v := range g.Variants {
			gb.Variant(v.ID, strings.TrimSpace(v.Text))
		}
	}
	tpl, err := b.Build()
	if err != nil {
		return domain.Template{}, fmt.Errorf("invalid template %s: %w", tplID, err)
	}
	return tpl, nil
}

// resolveGroups turns polymorphic group entries (inline maps or import strings)
// into clause groups, preserving declaration order.
func (l *Loader) resolveGroups(ctx context.Context, tplID string, raw []any) ([]domain.ClauseGroup, error) {
	groups := make([]domain.ClauseGroup, 0, len(raw))
	for i, item := range raw {
		switch v := item.(type) {
		case string:
			// Import Reference
			refID := trimExtension(v)
			doc, err := l.Repo.Get(ctx, refID)
			if err != nil {
				return nil, fmt.Errorf("template %s: failed to load group document '%s': %w", tplID, refID, err)
			}
			if doc.Data.kind() != KindGroup {
				return nil, fmt.Errorf("template %s: '%s' is not a group document", tplID, refID)
			}
			id := doc.Data.ID
			if id == "" {
				id = refID
			}
			groups = append(groups, domain.ClauseGroup{
				ID:       trimExtension(id),
				Label:    doc.Data.Label,
				Variants: doc.Data.Variants,
			})

		case map[string]any, map[any]any:
			// Inline Definition
			var g domain.ClauseGroup
			if err := mapstructure.Decode(v, &g); err != nil {
				return nil, fmt.Errorf("template %s: failed to decode group %d: %w", tplID, i, err)
			}
			groups = append(groups, g)

		default:
			return nil, fmt.Errorf("template %s: invalid group definition type: %T", tplID, v)
		}
	}
	return groups, nil
}

// ListTemplates lists all template documents in the repository.
func (l *Loader) ListTemplates(ctx context.Context) ([]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	ids := make([]string, 0, len(docs))

	for _, doc := range docs {
		if doc.Data.kind() != KindTemplate {
			continue
		}
		// Use the ID from metadata if available, otherwise filename ID
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		// Collision Detection
		if existingPath, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existingPath, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// Watch implements ports.Watchable.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}
