package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	dsk "github.com/feverzsj/dsk-go"
	"github.com/feverzsj/dsk-go/scheduler"
)

func fib(ctx dsk.AsyncContext, sch scheduler.Scheduler, n int) dsk.AsyncOp[int] {
	if n < 2 {
		return dsk.Immediate(dsk.Ok(n))
	}
	return dsk.StartOn[int](sch, dsk.NewTask(func(tc *dsk.TaskCtx) (int, error) {
		a := fib(tc.Async, sch, n-1)
		b := fib(tc.Async, sch, n-2)
		results := dsk.UntilAllDone(tc.Async, []dsk.AsyncOp[int]{a, b})

		va, err := results[0].Unwrap()
		if err != nil {
			return 0, err
		}
		vb, err := results[1].Unwrap()
		if err != nil {
			return 0, err
		}
		return va + vb, nil
	}))
}

func newFibCmd() *cobra.Command {
	var n int
	var impl string

	cmd := &cobra.Command{
		Use:   "fib",
		Short: "Compute Fib(n) via start_on(pool, ...) + UntilAllDone",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			sch, err := buildScheduler(impl, int(cfg.SchedulerWorkers), int(cfg.SchedulerQueueCapacity))
			if err != nil {
				return err
			}
			ctx := context.Background()
			if err := sch.Start(ctx); err != nil {
				return err
			}
			defer sch.StopAndJoin()

			res := dsk.SyncWait(dsk.Background(), fib(dsk.Background(), sch, n))
			v, err := res.Unwrap()
			if err != nil {
				return err
			}
			fmt.Printf("fib(%d) = %d\n", n, v)
			return nil
		},
	}
	cmd.Flags().IntVar(&n, "n", 6, "which Fibonacci number to compute")
	cmd.Flags().StringVar(&impl, "scheduler", "roundrobin", "scheduler implementation: roundrobin, workstealing, io")
	return cmd
}
