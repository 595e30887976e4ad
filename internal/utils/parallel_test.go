package utils

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestRunParallelKeepsErrorOrder(t *testing.T) {
	boom := errors.New("boom")
	tasks := []func() error{
		func() error { return nil },
		func() error { return boom },
		func() error { return nil },
	}

	errs := RunParallel(tasks)
	if len(errs) != 3 {
		t.Fatalf("len(errs) = %d, want 3", len(errs))
	}
	if errs[0] != nil || errs[2] != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if !errors.Is(errs[1], boom) {
		t.Fatalf("errs[1] = %v, want boom", errs[1])
	}
}

func TestWorkerPoolRunsEveryTask(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var ran int64
	const tasks = 100
	for i := 0; i < tasks; i++ {
		pool.AddTask(func() {
			atomic.AddInt64(&ran, 1)
		})
	}
	pool.Wait()

	if ran != tasks {
		t.Fatalf("ran = %d, want %d", ran, tasks)
	}
}
