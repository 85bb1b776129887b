package main

import (
	"fmt"

	"github.com/feverzsj/dsk-go/scheduler"
)

func buildScheduler(impl string, workers, queueCap int) (scheduler.Scheduler, error) {
	opt := scheduler.WithQueueCapacity(queueCap)
	switch impl {
	case "roundrobin", "":
		return scheduler.NewRoundRobinPool(workers, opt), nil
	case "workstealing":
		return scheduler.NewWorkStealingPool(workers, opt), nil
	case "io":
		return scheduler.NewIOPool(workers, opt), nil
	default:
		return nil, fmt.Errorf("dskctl: unknown scheduler implementation %q", impl)
	}
}
