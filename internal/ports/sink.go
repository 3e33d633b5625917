package ports

import "github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/domain"

// Sink persists processed batches to a downstream system.
type Sink interface {
	WriteBatch(samples []*domain.Sample) error
	Name() string
}
