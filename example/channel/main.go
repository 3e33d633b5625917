package main

import (
	"context"
	"fmt"
	"log"
	"time"

	venturi "github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007"
)

func main() {
	flow, err := venturi.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink, batches, closeBatches := venturi.NewChannelSink("fanout", 32)
	defer closeBatches()

	go fanoutWorker("ingest", batches)

	if err := flow.Run(ctx, venturi.StreamOutSink(sink)); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}

func fanoutWorker(name string, batches <-chan []venturi.Sample) {
	for batch := range batches {
		fmt.Printf("[%s] forwarding %d samples at %s\n", name, len(batch), time.Now().Format(time.RFC3339))
	}
}
