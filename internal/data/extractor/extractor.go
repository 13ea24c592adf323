package extractor

import (
	"context"

	"github.com/penwyp/go-timeline-mapper/internal/core/model"
)

// Extractor turns one raw source (photo directory, notes file, remote API)
// into candidate events for the store. Extractors reject broken records
// individually and apply their own timeouts; they never abort a whole run
// over a single bad input.
type Extractor interface {
	Name() string
	Extract(ctx context.Context) ([]model.Event, error)
}
