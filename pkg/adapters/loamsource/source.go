// Package loamsource ingests a Loam markdown workspace as a build plan:
// directories become sections, files become content-bearing elements, and
// frontmatter carries role, title, ordering, and hold handles.
package loamsource

import (
	"cmp"
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/outline"
	"github.com/aretw0/loam"
)

// Source reads a document workspace through Loam.
type Source struct {
	repo *loam.TypedRepository[SectionMetadata]
	name string
}

// Open initializes a read-only Loam repository at path. Strict mode keeps
// frontmatter numbers unambiguous across the markdown and JSON adapters.
func Open(path string) (*Source, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return &Source{
		repo: loam.NewTypedRepository[SectionMetadata](repo),
		name: filepath.Base(absPath),
	}, nil
}

// NewFromRepository wraps an existing typed repository.
func NewFromRepository(repo *loam.TypedRepository[SectionMetadata], name string) *Source {
	return &Source{repo: repo, name: name}
}

// Name returns the workspace label (the directory base name).
func (s *Source) Name() string { return s.name }

// Section fetches one document as a standalone plan section.
func (s *Source) Section(ctx context.Context, id string) (*outline.Section, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loam get failed for %s: %w", id, err)
	}
	sec := fileSection(filepath.Base(trimExtension(doc.ID)), doc.Data, doc.Content)
	return &sec, nil
}

// Outline assembles the whole workspace into a build plan. Every directory
// becomes a section (an "index" file inside it supplies that section's own
// metadata and content), every other file becomes a leaf element. Siblings
// are ordered by frontmatter order, then name.
func (s *Source) Outline(ctx context.Context) (*outline.Outline, error) {
	docs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	root := newDir("")
	for _, doc := range docs {
		id := trimExtension(doc.ID)
		dir := root.descend(filepath.Dir(filepath.FromSlash(id)))
		base := filepath.Base(id)
		if base == "index" || base == "_index" {
			dir.meta = doc.Data
			dir.content = strings.TrimSpace(doc.Content)
			continue
		}
		dir.files = append(dir.files, fileEntry{name: base, meta: doc.Data, content: doc.Content})
	}

	o := &outline.Outline{
		DocID:    s.name,
		Title:    root.meta.Title,
		Attrs:    root.meta.Attrs,
		Sections: root.kidSections(),
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// dirTree accumulates workspace entries before they are flattened into
// ordered plan sections.
type dirTree struct {
	name    string
	meta    SectionMetadata
	content string
	files   []fileEntry
	order   []string
	dirs    map[string]*dirTree
}

type fileEntry struct {
	name    string
	meta    SectionMetadata
	content string
}

func newDir(name string) *dirTree {
	return &dirTree{name: name, dirs: make(map[string]*dirTree)}
}

func (d *dirTree) descend(rel string) *dirTree {
	if rel == "." || rel == "" {
		return d
	}
	cur := d
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		next, ok := cur.dirs[part]
		if !ok {
			next = newDir(part)
			cur.dirs[part] = next
			cur.order = append(cur.order, part)
		}
		cur = next
	}
	return cur
}

// kidSections flattens files and subdirectories into one ordered list.
func (d *dirTree) kidSections() []outline.Section {
	type kid struct {
		order int
		name  string
		sec   outline.Section
	}
	kids := make([]kid, 0, len(d.files)+len(d.dirs))
	for _, f := range d.files {
		kids = append(kids, kid{order: f.meta.Order, name: f.name, sec: fileSection(f.name, f.meta, f.content)})
	}
	for _, name := range d.order {
		sub := d.dirs[name]
		kids = append(kids, kid{order: sub.meta.Order, name: name, sec: sub.section()})
	}
	slices.SortStableFunc(kids, func(a, b kid) int {
		if c := cmp.Compare(a.order, b.order); c != 0 {
			return c
		}
		return cmp.Compare(a.name, b.name)
	})

	out := make([]outline.Section, len(kids))
	for i, k := range kids {
		out[i] = k.sec
	}
	return out
}

func (d *dirTree) section() outline.Section {
	role := d.meta.Role
	if role == "" {
		role = "section"
	}
	title := d.meta.Title
	if title == "" {
		title = d.name
	}
	return outline.Section{
		Role:     domain.Role(role),
		Title:    title,
		Content:  d.content,
		Attrs:    d.meta.Attrs,
		Hold:     d.meta.Hold,
		Sections: d.kidSections(),
	}
}

func fileSection(name string, meta SectionMetadata, content string) outline.Section {
	role := meta.Role
	if role == "" {
		role = "paragraph"
	}
	title := meta.Title
	if title == "" {
		title = name
	}
	return outline.Section{
		Role:    domain.Role(role),
		Title:   title,
		Content: strings.TrimSpace(content),
		Attrs:   meta.Attrs,
		Hold:    meta.Hold,
	}
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
