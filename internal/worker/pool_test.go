package worker

import (
	"context"
	"errors"
	"testing"
)

func TestExecuteKeepsInputOrder(t *testing.T) {
	pool := NewPool[int, int](4, func(ctx context.Context, n int) (int, error) {
		if n == 3 {
			return 0, errors.New("three")
		}
		return n * n, nil
	})

	tasks := pool.Execute(context.Background(), []int{1, 2, 3, 4, 5, 6})
	for i, task := range tasks {
		if task.Input != i+1 {
			t.Fatalf("task %d input = %d", i, task.Input)
		}
		if task.Input == 3 {
			if task.Err == nil {
				t.Errorf("task 3 expected error")
			}
			continue
		}
		if task.Err != nil || task.Result != task.Input*task.Input {
			t.Errorf("task %d = %+v", i, task)
		}
	}
}

func TestExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	pool := NewPool[string, string](1, func(ctx context.Context, s string) (string, error) {
		calls++
		return s, nil
	})
	tasks := pool.Execute(ctx, []string{"a", "b"})
	if calls != 0 {
		t.Fatalf("process called %d times after cancel", calls)
	}
	for _, task := range tasks {
		if !errors.Is(task.Err, context.Canceled) {
			t.Fatalf("task err = %v", task.Err)
		}
	}
}
