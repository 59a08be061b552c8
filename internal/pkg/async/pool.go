// Package async provides a small worker pool for fanning independent
// computations out across goroutines and collecting their results by name.
package async

import (
	"context"
	"sync"
)

// Task is one named unit of work.
type Task struct {
	Name    string
	Execute func() (interface{}, error)
}

// Result carries a task's outcome back to the caller.
type Result struct {
	Name string
	Data interface{}
	Err  error
}

// Pool runs batches of tasks over a fixed number of workers. A Pool holds no
// state between batches, so one instance can serve concurrent callers.
type Pool struct {
	workerCount int
}

func NewPool(workerCount int) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Pool{workerCount: workerCount}
}

// Execute runs all tasks and returns their results keyed by task name. When
// the context is canceled mid-batch, results collected so far are returned.
func (p *Pool) Execute(ctx context.Context, tasks []Task) map[string]Result {
	results := make(map[string]Result, len(tasks))
	if len(tasks) == 0 {
		return results
	}

	taskCh := make(chan Task)
	resultCh := make(chan Result)

	var wg sync.WaitGroup
	for i := 0; i < p.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case task, ok := <-taskCh:
					if !ok {
						return
					}
					data, err := task.Execute()
					select {
					case resultCh <- Result{Name: task.Name, Data: data, Err: err}:
					case <-ctx.Done():
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(taskCh)
		for _, task := range tasks {
			select {
			case taskCh <- task:
			case <-ctx.Done():
				return
			}
		}
	}()

	for i := 0; i < len(tasks); i++ {
		select {
		case result := <-resultCh:
			results[result.Name] = result
		case <-ctx.Done():
			return results
		}
	}

	wg.Wait()
	return results
}
