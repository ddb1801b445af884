package async

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"
)

// Gather runs handler once for every index in [0, n) concurrently and waits
// for all of them before returning
//
// Behavior:
//   - All handlers are started; a failure does not cancel the others
//   - The first error (by completion) is returned after every handler finished
//   - A panicking handler is recovered, logged with its stack and reported as an error
func Gather(ctx context.Context, n int, handler func(ctx context.Context, i int) error) error {
	var eg errgroup.Group

	for i := 0; i < n; i++ {
		eg.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					stack := debug.Stack()
					ctxlog.From(ctx).Error("panic in async handler",
						"recover", r,
						"stack", string(stack))
					err = goerr.New("panic in async handler", goerr.V("recover", fmt.Sprint(r)), goerr.V("index", i))
				}
			}()

			return handler(ctx, i)
		})
	}

	return eg.Wait()
}
