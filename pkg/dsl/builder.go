package dsl

import (
	"fmt"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/outline"
)

// Builder manages the plan construction.
type Builder struct {
	o outline.Outline
}

// Document creates a new plan builder for the given document ID.
func Document(id string) *Builder {
	return &Builder{o: outline.Outline{DocID: id}}
}

// Title sets the root element's title.
func (b *Builder) Title(title string) *Builder {
	b.o.Title = title
	return b
}

// Root overrides the root element's role (default: document).
func (b *Builder) Root(role domain.Role) *Builder {
	b.o.Root = role
	return b
}

// Attr adds a root attribute.
func (b *Builder) Attr(key string, value any) *Builder {
	if b.o.Attrs == nil {
		b.o.Attrs = make(map[string]any)
	}
	b.o.Attrs[key] = value
	return b
}

// Section appends a top-level section and configures it through fn.
// A nil fn leaves the section bare.
func (b *Builder) Section(title string, fn func(*SectionBuilder)) *Builder {
	b.o.Sections = append(b.o.Sections, buildSection(title, fn))
	return b
}

// Build validates the plan and returns it.
func (b *Builder) Build() (*outline.Outline, error) {
	o := b.o
	if err := o.Validate(); err != nil {
		return nil, fmt.Errorf("failed to build plan: %w", err)
	}
	return &o, nil
}

func buildSection(title string, fn func(*SectionBuilder)) outline.Section {
	sb := &SectionBuilder{section: outline.Section{Title: title}}
	if fn != nil {
		fn(sb)
	}
	return sb.section
}
