package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
)

type piiMiddleware struct {
	next     ports.CommitLog
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks attribute values whose
// keys match the patterns before the record reaches storage. The mask is
// permanent: read-back returns the masked values.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.CommitLog) ports.CommitLog {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Commit(ctx context.Context, rec *domain.CommitRecord) error {
	if len(rec.Attrs) == 0 {
		return m.next.Commit(ctx, rec)
	}

	// Clone before masking so the caller's record is untouched.
	cloned := *rec
	cloned.Attrs = make(map[string]string, len(rec.Attrs))
	for k, v := range rec.Attrs {
		cloned.Attrs[k] = v
	}

	maskAttrs(cloned.Attrs, m.patterns)

	return m.next.Commit(ctx, &cloned)
}

func (m *piiMiddleware) Committed(ctx context.Context, docID string) ([]domain.CommitRecord, error) {
	return m.next.Committed(ctx, docID)
}

func maskAttrs(attrs map[string]string, patterns []*regexp.Regexp) {
	for k := range attrs {
		for _, p := range patterns {
			if p.MatchString(k) {
				attrs[k] = "***"
				break
			}
		}
	}
}
