package utils

import (
	"context"
	"sync"

	"github.com/zeromicro/go-zero/core/threading"

	"governance-sdk-sol/internal/consts"
)

// ParallelMap 以最多 workers 个协程并发执行 fn，结果顺序与输入一致。workers <= 0 时取 CPU 核数
func ParallelMap[T any, R any](input []T, workers int, fn func(T) R) []R {
	result := make([]R, len(input))
	if len(input) == 0 {
		return result
	}
	if workers <= 0 {
		workers = consts.CpuCount
	}
	if len(input) == 1 || workers <= 1 {
		for i, v := range input {
			result[i] = fn(v)
		}
		return result
	}

	runner := threading.NewTaskRunner(min(workers, len(input)))
	for i := range input {
		idx := i
		runner.Schedule(func() {
			result[idx] = fn(input[idx])
		})
	}
	runner.Wait()
	return result
}

// ParallelMapCtx 与 ParallelMap 相同，但任一任务出错或 ctx 取消时返回第一个错误，
// 已经开始的任务会收到被取消的 ctx
func ParallelMapCtx[T any, R any](ctx context.Context, input []T, workers int, fn func(context.Context, T) (R, error)) ([]R, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		once     sync.Once
		firstErr error
	)
	result := ParallelMap(input, workers, func(v T) R {
		var zero R
		if err := ctx.Err(); err != nil {
			once.Do(func() { firstErr = err })
			return zero
		}
		r, err := fn(ctx, v)
		if err != nil {
			once.Do(func() {
				firstErr = err
				cancel()
			})
			return zero
		}
		return r
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return result, nil
}
