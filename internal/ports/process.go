package ports

import (
	"context"

	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/domain"
)

// ProcessFunc is the external processing contract. The processor invokes it
// with a dequeued batch and a deadline-bounded context; implementations are
// expected to honor the deadline. Failures should be (or wrap) a
// *domain.ProcessingError so the retry policy can classify them; anything
// else is treated as a recoverable partial failure.
type ProcessFunc func(ctx context.Context, batch []*domain.Sample) ([]*domain.Sample, error)
