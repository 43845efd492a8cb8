package refinement

import (
	"time"

	"github.com/MikeSquared-Agency/cerealbox/internal/hermes"
	"github.com/MikeSquared-Agency/cerealbox/internal/skeleton"
)

// Bus is the subset of the hermes client the publisher needs.
type Bus interface {
	Publish(subject string, data any) error
}

// Publisher announces skeleton refinements on NATS.
type Publisher struct {
	bus Bus
	now func() time.Time
}

// NewPublisher creates a refinement publisher. A nil bus makes every publish
// a no-op.
func NewPublisher(bus Bus) *Publisher {
	return &Publisher{bus: bus, now: time.Now}
}

// PublishRefined emits a cerealbox.skeleton.refined event for one edit.
func (p *Publisher) PublishRefined(requestID, component string, s *skeleton.Skeleton) error {
	if p == nil || p.bus == nil {
		return nil
	}

	event := hermes.RefinementEvent{
		RequestID:         requestID,
		Category:          s.Metadata.Category,
		Component:         component,
		UserModifications: append([]string{}, s.Metadata.UserModifications...),
		EstimatedTokens:   s.Metadata.EstimatedTokens,
		Timestamp:         p.now().UTC(),
	}
	return p.bus.Publish(hermes.SubjectSkeletonRefined, event)
}
