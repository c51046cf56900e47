package main

import (
	"context"
	"os"
	"time"

	service "github.com/okian/handicap/internal/app"
	"github.com/okian/handicap/pkg/metrics"
)

// serviceMetricsInterval is how often service gauges are refreshed while serving.
const serviceMetricsInterval = 5 * time.Second

func main() {
	if err := execute(); err != nil {
		os.Exit(1)
	}
}

// startServiceMetricsUpdater refreshes the service gauges until ctx ends.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateServiceMetrics copies the service stats into the queue and worker gauges.
// GetStats itself refreshes the stored-report gauge.
func updateServiceMetrics(svc *service.Service) {
	stats := svc.GetStats()

	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
	if workerCount, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workerCount)
	}
}
