// Package txn runs units of work atomically against a repository backend.
// A unit either commits completely or leaves the store untouched.
package txn

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"go-pos-backoffice/internal/config"
	"go-pos-backoffice/internal/lock"
	"go-pos-backoffice/internal/repository"
	"go-pos-backoffice/pkg/apperror"
	"go-pos-backoffice/pkg/logger"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	moduleName     = "txn"
	releaseTimeout = 5 * time.Second
	retryBackoff   = 25 * time.Millisecond
)

// UnitOfWork is the body of a transaction. It must use only the repositories it is given.
type UnitOfWork func(ctx context.Context, repos *repository.Repositories) error

type Option func(*runOptions)

type runOptions struct {
	locks     []string
	isolation sql.IsolationLevel
	readOnly  bool
}

// WithLocks serializes the unit against every other unit holding any of keys.
func WithLocks(keys ...string) Option {
	return func(o *runOptions) { o.locks = append(o.locks, keys...) }
}

func WithIsolation(level sql.IsolationLevel) Option {
	return func(o *runOptions) { o.isolation = level }
}

func ReadOnly() Option {
	return func(o *runOptions) { o.readOnly = true }
}

// Coordinator is the only way services reach the store.
type Coordinator struct {
	backend repository.Backend
	locker  lock.Locker
	cfg     config.TxConfig
	log     logrus.FieldLogger
	tracer  trace.Tracer
}

// NewCoordinator falls back to an in-process locker when locker is nil.
func NewCoordinator(backend repository.Backend, locker lock.Locker, cfg config.TxConfig, log logrus.FieldLogger) *Coordinator {
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Coordinator{backend: backend, locker: locker, cfg: cfg, log: log, tracer: otel.Tracer("go-pos-backoffice/txn")}
}

// Run executes fn in one transaction. The whole call is bounded by the configured timeout;
// obtaining locks is bounded by the max wait. Serialization failures are retried.
func (c *Coordinator) Run(ctx context.Context, name string, fn UnitOfWork, opts ...Option) (err error) {
	o := runOptions{isolation: c.cfg.Isolation}
	for _, opt := range opts {
		opt(&o)
	}
	keys := normalizeKeys(o.locks)

	ctx, span := c.tracer.Start(ctx, "txn."+name, trace.WithAttributes(
		attribute.StringSlice("txn.locks", keys),
		attribute.Bool("txn.read_only", o.readOnly),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	for attempt := 1; ; attempt++ {
		span.SetAttributes(attribute.Int("txn.attempts", attempt))
		hooks, err := c.attempt(ctx, fn, keys, &o)
		if err == nil {
			c.log.WithFields(logrus.Fields{
				"unit":     name,
				"attempt":  attempt,
				"duration": time.Since(start).String(),
			}).Debug("unit of work committed")
			hooks.run(c.log, name)
			return nil
		}
		if !IsSerializationFailure(err) || attempt > c.cfg.MaxRetries || ctx.Err() != nil {
			return c.translate(ctx, name, err)
		}
		c.log.WithFields(logrus.Fields{
			"unit":    name,
			"attempt": attempt,
		}).Warn("serialization failure, retrying unit of work")

		select {
		case <-time.After(time.Duration(attempt) * retryBackoff):
		case <-ctx.Done():
			return c.translate(ctx, name, ctx.Err())
		}
	}
}

func (c *Coordinator) attempt(ctx context.Context, fn UnitOfWork, keys []string, o *runOptions) (h *hooks, err error) {
	release, err := c.acquire(ctx, keys)
	if err != nil {
		return nil, err
	}
	defer release()

	tx, err := c.begin(ctx, &sql.TxOptions{Isolation: o.isolation, ReadOnly: o.readOnly})
	if err != nil {
		return nil, err
	}

	committed := false
	defer func() {
		if p := recover(); p != nil {
			h, err = nil, fmt.Errorf("panic in unit of work: %v", p)
		}
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				c.log.WithError(rbErr).Warn("rollback failed")
			}
		}
	}()

	h = &hooks{}
	if err := fn(withHooks(ctx, h), tx.Repositories()); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	committed = true
	return h, nil
}

// begin opens the backend transaction, giving up with ErrBusy after MaxWait.
// The transaction itself stays bound to ctx; a late Begin is rolled back.
func (c *Coordinator) begin(ctx context.Context, opts *sql.TxOptions) (repository.Tx, error) {
	if c.cfg.MaxWait <= 0 {
		return c.backend.Begin(ctx, opts)
	}

	type opened struct {
		tx  repository.Tx
		err error
	}
	done := make(chan opened, 1)
	go func() {
		tx, err := c.backend.Begin(ctx, opts)
		done <- opened{tx, err}
	}()

	timer := time.NewTimer(c.cfg.MaxWait)
	defer timer.Stop()
	select {
	case r := <-done:
		return r.tx, r.err
	case <-timer.C:
		go func() {
			if r := <-done; r.err == nil {
				if err := r.tx.Rollback(); err != nil {
					c.log.WithError(err).Warn("rollback of late transaction failed")
				}
			}
		}()
		return nil, fmt.Errorf("begin transaction: %w", repository.ErrBusy)
	}
}

// acquire locks keys in order under the max wait and returns a func releasing all of them.
func (c *Coordinator) acquire(ctx context.Context, keys []string) (func(), error) {
	if len(keys) == 0 {
		return func() {}, nil
	}

	waitCtx := ctx
	if c.cfg.MaxWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, c.cfg.MaxWait)
		defer cancel()
	}

	held := make([]lock.Handle, 0, len(keys))
	release := func() {
		rctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			if err := held[i].Release(rctx); err != nil {
				c.log.WithError(err).Warn("failed to release lock")
			}
		}
	}

	for _, key := range keys {
		h, err := c.locker.Acquire(waitCtx, key)
		if err != nil {
			release()
			return nil, err
		}
		held = append(held, h)
	}
	return release, nil
}

func (c *Coordinator) translate(ctx context.Context, name string, err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var out *apperror.Error
	switch {
	case errors.Is(err, lock.ErrNotAcquired), errors.Is(err, repository.ErrBusy), isLockTimeout(err):
		out = apperror.Retryable("could not acquire lock, try again", err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		out = apperror.Retryable("transaction timed out, try again", err)
	case IsSerializationFailure(err):
		out = apperror.Retryable("transaction conflict, try again", err)
	case errors.Is(err, repository.ErrNotFound):
		return apperror.NotFound("record not found")
	default:
		out = apperror.Internal(err)
	}
	logger.LogError(c.log, moduleName, "Run", "unit of work failed", name, err)
	return out
}

// IsSerializationFailure reports Postgres serialization failures and deadlocks.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

func isLockTimeout(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "55P03"
}

func normalizeKeys(keys []string) []string {
	if len(keys) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup || k == "" {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
