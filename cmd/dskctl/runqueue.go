package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	dsk "github.com/feverzsj/dsk-go"
	"github.com/feverzsj/dsk-go/resqueue"
	"github.com/feverzsj/dsk-go/scheduler"
)

// produce enqueues 0..items-1 as a Task driven through q.EnqueueOp,
// marking the queue's end once every item is in.
func produce(sch scheduler.Scheduler, q *resqueue.ResQueue[int], items int) dsk.AsyncOp[struct{}] {
	return dsk.StartOn[struct{}](sch, dsk.NewTask(func(tc *dsk.TaskCtx) (struct{}, error) {
		for i := 0; i < items; i++ {
			if _, err := dsk.Wait(tc, q.EnqueueOp(i)); err != nil {
				return struct{}{}, fmt.Errorf("enqueue %d: %w", i, err)
			}
		}
		q.MarkEnd()
		return struct{}{}, nil
	}))
}

// consume drains q through q.DequeueOp until EndReached, as a Task.
func consume(sch scheduler.Scheduler, q *resqueue.ResQueue[int]) dsk.AsyncOp[[]int] {
	return dsk.StartOn[[]int](sch, dsk.NewTask(func(tc *dsk.TaskCtx) ([]int, error) {
		var got []int
		for {
			v, err := dsk.Wait(tc, q.DequeueOp())
			if err != nil {
				if errors.Is(err, dsk.EndReached) {
					return got, nil
				}
				return got, err
			}
			got = append(got, v)
		}
	}))
}

func newRunQueueCmd() *cobra.Command {
	var items int

	cmd := &cobra.Command{
		Use:   "run-queue",
		Short: "Drive a ResQueue producer/consumer demo",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			q := resqueue.New[int](int(cfg.QueueCapacity))

			sch, err := buildScheduler("workstealing", int(cfg.SchedulerWorkers), int(cfg.SchedulerQueueCapacity))
			if err != nil {
				return err
			}
			if err := sch.Start(context.Background()); err != nil {
				return err
			}
			defer sch.StopAndJoin()

			producer := produce(sch, q, items)
			consumer := consume(sch, q)

			// Both are posted to the scheduler and must run concurrently:
			// the producer blocks on EnqueueOp once the queue fills, and
			// only the consumer draining it unblocks that wait, so
			// SyncWait-ing them one after another would deadlock past
			// QueueCapacity items.
			var wg sync.WaitGroup
			var prodErr error
			var got []int
			var consErr error

			wg.Add(2)
			go func() {
				defer wg.Done()
				_, prodErr = dsk.SyncWait(dsk.Background(), producer).Unwrap()
			}()
			go func() {
				defer wg.Done()
				got, consErr = dsk.SyncWait(dsk.Background(), consumer).Unwrap()
			}()
			wg.Wait()

			if prodErr != nil {
				return fmt.Errorf("producer: %w", prodErr)
			}
			if consErr != nil {
				return fmt.Errorf("consumer: %w", consErr)
			}
			for _, v := range got {
				fmt.Printf("consumer: got %d\n", v)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&items, "items", 10, "number of items the producer enqueues")
	return cmd
}
