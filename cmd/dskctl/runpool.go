package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	dsk "github.com/feverzsj/dsk-go"
	"github.com/feverzsj/dsk-go/respool"
	"github.com/feverzsj/dsk-go/scheduler"
)

// holdResource drives one acquire/hold/release cycle as a Task, so
// acquisition goes through pool.AcquireOp() (an AsyncOp[*Ref[int]])
// instead of the bare blocking Acquire, composing with the scheduler
// and WaitForDuration the same way fib.go composes UntilAllDone.
func holdResource(sch scheduler.Scheduler, pool *respool.ResPool[int], id int) dsk.AsyncOp[string] {
	return dsk.StartOn[string](sch, dsk.NewTask(func(tc *dsk.TaskCtx) (string, error) {
		start := time.Now()
		ref := dsk.Try(tc, pool.AcquireOp())
		latency := time.Since(start)
		dsk.Try(tc, dsk.WaitForDuration(50*time.Millisecond))
		ref.Recycle()
		return fmt.Sprintf("holder %d: acquired in %s", id, latency), nil
	}))
}

func newRunPoolCmd() *cobra.Command {
	var holders int

	cmd := &cobra.Command{
		Use:   "run-pool",
		Short: "Drive a ResPool under synthetic contention and print acquire latencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			pool := respool.NewResPool(int(cfg.PoolCapacity), func(ctx context.Context) (int, error) {
				return 1, nil
			})

			sch, err := buildScheduler("workstealing", int(cfg.SchedulerWorkers), int(cfg.SchedulerQueueCapacity))
			if err != nil {
				return err
			}
			if err := sch.Start(context.Background()); err != nil {
				return err
			}
			defer sch.StopAndJoin()

			ops := make([]dsk.AsyncOp[string], holders)
			for i := 0; i < holders; i++ {
				ops[i] = holdResource(sch, pool, i)
			}

			results := dsk.UntilAllDone(dsk.Background(), ops)
			for _, r := range results {
				line, err := r.Unwrap()
				if err != nil {
					fmt.Println("holder failed:", err)
					continue
				}
				fmt.Println(line)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&holders, "holders", 8, "number of concurrent acquirers")
	return cmd
}
