package outline

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
)

// New creates a Builder configured from the plan's root options. Options
// passed here are applied after the plan's, so they win.
func New(sink ports.CommitSink, o *Outline, opts ...canopy.Option) (*canopy.Builder, error) {
	var all []canopy.Option
	if o.DocID != "" {
		all = append(all, canopy.WithDocumentID(o.DocID))
	}
	if o.Root != "" {
		all = append(all, canopy.WithRootRole(o.Root))
	}
	all = append(all, opts...)
	return canopy.New(sink, all...)
}

// Build replays the plan onto the builder: sections become elements,
// flush-marked sections commit as soon as they close, hold-marked sections
// park under their handle. Build leaves the cursor at the root and does not
// finalize; the host decides when the document is complete.
func (o *Outline) Build(ctx context.Context, doc *canopy.Builder) error {
	if o.Title != "" {
		if err := doc.SetTitle(o.Title); err != nil {
			return err
		}
	}
	if err := applyAttrs(doc, o.Attrs); err != nil {
		return err
	}
	for i := range o.Sections {
		if err := buildSection(ctx, doc, &o.Sections[i]); err != nil {
			return fmt.Errorf("section %q: %w", o.Sections[i].label(), err)
		}
	}
	return nil
}

func buildSection(ctx context.Context, doc *canopy.Builder, s *Section) error {
	role := s.Role
	if role == "" {
		role = domain.RoleSection
	}
	if err := doc.Open(role); err != nil {
		return err
	}
	if s.Title != "" {
		if err := doc.SetTitle(s.Title); err != nil {
			return err
		}
	}
	if err := applyAttrs(doc, s.Attrs); err != nil {
		return err
	}
	if s.Content != "" {
		if err := doc.AddText(s.Content); err != nil {
			return err
		}
	}

	for i := range s.Sections {
		if err := buildSection(ctx, doc, &s.Sections[i]); err != nil {
			return fmt.Errorf("section %q: %w", s.Sections[i].label(), err)
		}
	}

	if s.Hold != "" {
		if err := doc.Hold(s.Hold); err != nil {
			return err
		}
	}
	if s.Flush {
		return doc.Flush(ctx)
	}
	return doc.Close()
}

func applyAttrs(doc *canopy.Builder, raw map[string]any) error {
	attrs, err := decodeAttrs(raw)
	if err != nil {
		return err
	}
	for _, key := range slices.Sorted(maps.Keys(attrs)) {
		if err := doc.SetAttr(key, attrs[key]); err != nil {
			return err
		}
	}
	return nil
}
