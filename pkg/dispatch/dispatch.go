// Package dispatch runs caller-supplied work against a filtered set of hosts, either one
// host after another or all at once.
package dispatch

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/brevdev/fleet/pkg/entity"
	breverrors "github.com/brevdev/fleet/pkg/errors"
	"github.com/brevdev/fleet/pkg/selector"
)

// WorkFunc is the unit of work run once per selected host.
type WorkFunc[R any] func(ctx context.Context, h *entity.Host) (R, error)

type Options struct {
	Parallel bool
}

type Dispatcher[R any] struct {
	log *zap.Logger
}

func New[R any](log *zap.Logger) *Dispatcher[R] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher[R]{log: log.Named("dispatch")}
}

// Dispatch resolves filter against hosts and runs work on the result.
//
// A non-empty filter is tried as a role first and as a name prefix when no host carries
// that role. When the filter narrows the hosts to exactly one, the result is a Single
// result rather than a one-element sequence. An empty target yields a NoOp result and
// work is not called.
//
// Errors returned by work are passed back unwrapped. Sequential runs stop at the first
// failing host. Parallel runs let every host finish and report the error of the
// earliest failing host in input order, discarding all results.
func (d *Dispatcher[R]) Dispatch(ctx context.Context, hosts []*entity.Host, filter string, opts Options, work WorkFunc[R]) (Result[R], error) {
	filter = strings.TrimSpace(filter)
	targets := hosts
	if filter != "" {
		if len(hosts) == 0 {
			return Result[R]{}, breverrors.NewInvalidArgumentError("unable to sort for %s type hosts when provided with an empty host set", filter)
		}
		targets = selector.Resolve(hosts, filter)
		if len(targets) == 1 {
			return d.DispatchHost(ctx, targets[0], work)
		}
	}

	switch {
	case len(targets) == 0:
		d.log.Info("attempting to execute against an empty set of hosts, no execution will occur",
			zap.String("filter", filter),
			zap.Strings("hosts", entity.HostNames(hosts)))
		return Result[R]{kind: KindNoOp}, nil
	case opts.Parallel:
		return d.runParallel(ctx, targets, work)
	default:
		return d.runSequential(ctx, targets, work)
	}
}

// DispatchHost runs work against a single host and returns its result unwrapped.
func (d *Dispatcher[R]) DispatchHost(ctx context.Context, host *entity.Host, work WorkFunc[R]) (Result[R], error) {
	if host == nil {
		return Result[R]{}, breverrors.NewInvalidArgumentError("host cannot be nil")
	}
	value, err := work(ctx, host)
	if err != nil {
		return Result[R]{}, err
	}
	return Result[R]{kind: KindSingle, values: []R{value}}, nil
}

func (d *Dispatcher[R]) runSequential(ctx context.Context, hosts []*entity.Host, work WorkFunc[R]) (Result[R], error) {
	values := make([]R, 0, len(hosts))
	for _, h := range hosts {
		value, err := work(ctx, h)
		if err != nil {
			d.log.Debug("work failed, skipping remaining hosts", zap.String("host", h.Name), zap.Error(err))
			return Result[R]{}, err
		}
		values = append(values, value)
	}
	return Result[R]{kind: KindMany, values: values}, nil
}

func (d *Dispatcher[R]) runParallel(ctx context.Context, hosts []*entity.Host, work WorkFunc[R]) (Result[R], error) {
	if err := checkDistinct(hosts); err != nil {
		return Result[R]{}, err
	}

	values := make([]R, len(hosts))
	errs := make([]error, len(hosts))

	// tasks always return nil so the group never short-circuits; per-host errors are
	// kept by index
	var g errgroup.Group
	for i, h := range hosts {
		i, h := i, h
		g.Go(func() error {
			defer d.release(h)
			values[i], errs[i] = work(ctx, h)
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		if err != nil {
			d.log.Debug("work failed during parallel dispatch", zap.String("host", hosts[i].Name), zap.Error(err))
			return Result[R]{}, err
		}
	}
	return Result[R]{kind: KindMany, values: values}, nil
}

// concurrent use leaves the transport unusable for the next call, so each task hands
// its host's connection back when it is done
func (d *Dispatcher[R]) release(h *entity.Host) {
	if err := h.CloseConnection(); err != nil {
		d.log.Warn("failed to release host connection", zap.String("host", h.Name), zap.Error(err))
	}
}

func checkDistinct(hosts []*entity.Host) error {
	seen := make(map[string]bool, len(hosts))
	for _, h := range hosts {
		if seen[h.Name] {
			return breverrors.NewInvalidArgumentError("host %s appears more than once; it cannot run two tasks at the same time", h.Name)
		}
		seen[h.Name] = true
	}
	return nil
}
