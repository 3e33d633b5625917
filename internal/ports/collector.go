package ports

import "github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/domain"

// Collector streams samples from any acquisition source (OPC UA gateways,
// simulators, file replay) into the pipeline.
type Collector interface {
	Start(out chan<- *domain.Sample) error
	Stop() error
}
