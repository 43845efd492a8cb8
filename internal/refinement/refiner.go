package refinement

import (
	"github.com/MikeSquared-Agency/cerealbox/internal/rules"
	"github.com/MikeSquared-Agency/cerealbox/internal/skeleton"
)

// Refine replaces the text of one existing section in place. The name is
// appended to the modification log and the token estimate is recomputed.
//
// An unknown component returns a *rules.UnknownKeyError listing the current
// section names and leaves s untouched. Callers that need the prior state
// should Clone before refining.
func Refine(s *skeleton.Skeleton, component, value string) (*skeleton.Skeleton, error) {
	if !s.Sections.Has(component) {
		return nil, &rules.UnknownKeyError{
			Kind:  "component",
			Key:   component,
			Valid: s.Sections.Names(),
		}
	}

	s.Sections.Set(component, value)
	s.Metadata.UserModifications = append(s.Metadata.UserModifications, component)
	s.Metadata.EstimatedTokens = skeleton.EstimateTokens(&s.Sections)
	return s, nil
}
