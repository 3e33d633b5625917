package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	venturi "github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007"
)

func main() {
	flow, err := venturi.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = flow.Run(ctx, venturi.StreamOutCallback("print", func(batch []venturi.Sample) error {
		fmt.Printf("processed batch of %d samples\n", len(batch))
		return nil
	}))
	if err != nil && err != context.Canceled {
		log.Fatalf("runtime exited: %v", err)
	}
}
