package outline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Outline is the top of a build plan. Root options (document ID, root role)
// apply when the Builder is created via New; Build itself only grows the
// tree beneath whatever root the Builder already has.
type Outline struct {
	DocID    string         `yaml:"doc_id" json:"doc_id"`
	Root     domain.Role    `yaml:"root" json:"root"`
	Title    string         `yaml:"title" json:"title"`
	Attrs    map[string]any `yaml:"attrs" json:"attrs"`
	Sections []Section      `yaml:"sections" json:"sections"`
}

// Section is one element of the plan. Hold and Flush are mutually
// exclusive: a flush commits the section on the spot, a hold keeps it back.
type Section struct {
	Role     domain.Role    `yaml:"role" json:"role"`
	Title    string         `yaml:"title" json:"title"`
	Content  string         `yaml:"content" json:"content"`
	Attrs    map[string]any `yaml:"attrs" json:"attrs"`
	Hold     string         `yaml:"hold" json:"hold"`
	Flush    bool           `yaml:"flush" json:"flush"`
	Sections []Section      `yaml:"sections" json:"sections"`
}

// Parse decodes a YAML build plan and validates it.
func Parse(data []byte) (*Outline, error) {
	var o Outline
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("failed to parse outline: %w", err)
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return &o, nil
}

// ParseFile reads a plan from disk, dispatching on the extension
// (.json is JSON, everything else is YAML).
func ParseFile(path string) (*Outline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read outline: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		var o Outline
		if err := json.Unmarshal(data, &o); err != nil {
			return nil, fmt.Errorf("failed to parse outline: %w", err)
		}
		if err := o.Validate(); err != nil {
			return nil, err
		}
		return &o, nil
	}

	return Parse(data)
}

// Holds lists the hold handles declared in the plan, in document order.
func (o *Outline) Holds() []string {
	var handles []string
	walkSections(o.Sections, func(s *Section) {
		if s.Hold != "" {
			handles = append(handles, s.Hold)
		}
	})
	return handles
}

// Validate checks the plan's hold handles: every handle is unique, and no
// section combines hold with flush. Parse and ParseFile run it already;
// callers assembling an Outline programmatically should run it themselves.
func (o *Outline) Validate() error {
	seen := make(map[string]bool)
	var err error
	walkSections(o.Sections, func(s *Section) {
		if err != nil {
			return
		}
		if s.Hold != "" && s.Flush {
			err = fmt.Errorf("section %q: hold and flush are mutually exclusive", s.label())
			return
		}
		if s.Hold != "" {
			if seen[s.Hold] {
				err = fmt.Errorf("duplicate hold handle %q", s.Hold)
				return
			}
			seen[s.Hold] = true
		}
	})
	return err
}

func walkSections(sections []Section, fn func(*Section)) {
	for i := range sections {
		fn(&sections[i])
		walkSections(sections[i].Sections, fn)
	}
}

func (s *Section) label() string {
	if s.Title != "" {
		return s.Title
	}
	if s.Role != "" {
		return string(s.Role)
	}
	return "section"
}

// decodeAttrs coerces a loosely-typed attr map (YAML numbers, bools) into
// the string-valued attributes elements carry.
func decodeAttrs(raw map[string]any) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(raw))
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode attrs: %w", err)
	}
	return out, nil
}
