package framework

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/golang/glog"
)

// ErrForcedExit is returned by Runner.Wait when a second stop signal arrives
// before all Runnables have returned.
var ErrForcedExit = errors.New("forced exit")

// Runner starts Runnables on goroutines sharing one context.
type Runner struct {
	Context context.Context

	names   []string
	results chan runResult
	exitCh  chan struct{}
}

type runResult struct {
	name string
	err  error
}

// NewRunner creates a runner with a background context.
func NewRunner() *Runner {
	return NewRunnerWith(context.Background())
}

// NewRunnerWith creates a runner with the context.
func NewRunnerWith(ctx context.Context) *Runner {
	return &Runner{
		Context: ctx,
		results: make(chan runResult, 1),
		exitCh:  make(chan struct{}),
	}
}

// HandleSignals cancels the context on Ctrl-C or SIGTERM.
// A second signal forces Wait to return.
func (r *Runner) HandleSignals() *Runner {
	ctx, cancel := context.WithCancel(r.Context)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	r.Context = ctx
	go func() {
		<-sigCh
		glog.Info("stop requested")
		cancel()
		<-sigCh
		glog.Error("stop requested again, force exit")
		close(r.exitCh)
	}()
	return r
}

// Go starts the Runnables. Runnables implementing Named are logged by
// name, others by their start order.
func (r *Runner) Go(runnables ...Runnable) *Runner {
	for _, runnable := range runnables {
		name := strconv.Itoa(len(r.names))
		if named, ok := runnable.(Named); ok {
			name = named.Name()
		}
		r.names = append(r.names, name)
		go r.run(runnable, name)
	}
	return r
}

func (r *Runner) run(runnable Runnable, name string) {
	glog.V(4).Infof("runner %s started", name)
	err := runnable.Run(r.Context)
	glog.V(4).Infof("runner %s stopped: %v", name, err)
	r.results <- runResult{name: name, err: err}
}

// Wait waits until all Runnables return. Errors other than
// context.Canceled are aggregated and prefixed with the runner name.
func (r *Runner) Wait() error {
	var errs AggregatedError
	for range r.names {
		select {
		case <-r.exitCh:
			return ErrForcedExit
		case res := <-r.results:
			if res.err != nil && res.err != context.Canceled {
				errs.Add(fmt.Errorf("%s: %w", res.name, res.err))
			}
		}
	}
	return errs.Aggregate()
}

// RunWithContextCloser runs a blocking fn which doesn't accept a context.
// closer is closed when ctx is done to unblock fn, or after fn returns.
func RunWithContextCloser(ctx context.Context, closer io.Closer, fn func() error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- fn()
	}()
	select {
	case <-ctx.Done():
		closer.Close()
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		closer.Close()
		return err
	}
}
