package dsl

import (
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/outline"
)

// SectionBuilder provides a fluent API for configuring a section.
type SectionBuilder struct {
	section outline.Section
}

// Role sets the element's role (default: section).
func (s *SectionBuilder) Role(role domain.Role) *SectionBuilder {
	s.section.Role = role
	return s
}

// Text sets the section's inline content.
func (s *SectionBuilder) Text(content string) *SectionBuilder {
	s.section.Content = content
	return s
}

// Attr adds an attribute to the section.
func (s *SectionBuilder) Attr(key string, value any) *SectionBuilder {
	if s.section.Attrs == nil {
		s.section.Attrs = make(map[string]any)
	}
	s.section.Attrs[key] = value
	return s
}

// Hold keeps the section open under the given handle when the plan ends.
// Mutually exclusive with Flush.
func (s *SectionBuilder) Hold(handle string) *SectionBuilder {
	s.section.Hold = handle
	return s
}

// Flush commits the section's finished subtree on the spot.
// Mutually exclusive with Hold.
func (s *SectionBuilder) Flush() *SectionBuilder {
	s.section.Flush = true
	return s
}

// Section appends a nested section and configures it through fn.
func (s *SectionBuilder) Section(title string, fn func(*SectionBuilder)) *SectionBuilder {
	s.section.Sections = append(s.section.Sections, buildSection(title, fn))
	return s
}
