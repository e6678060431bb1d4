// Package txn runs multi-document writes inside a MongoDB transaction.
//
// Standalone mongod deployments reject transactions. Runner detects that
// class of error, logs it once, and from then on runs the same function
// without a session. Callers write fn once and get atomicity wherever the
// deployment offers it.
package txn

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Runner executes functions inside a transaction when supported.
type Runner struct {
	client      *mongo.Client
	log         *zap.Logger
	unsupported atomic.Bool
}

// New creates a Runner for the client that owns db.
func New(db *mongo.Database, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{client: db.Client(), log: logger}
}

// Run executes fn. Inside a transaction, ctx passed to fn is the session
// context and every collection call made with it joins the transaction.
// fn may be retried by the driver on transient errors, so it must not
// hold side effects outside the database.
func (r *Runner) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.unsupported.Load() {
		return fn(ctx)
	}

	sess, err := r.client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			r.markUnsupported(err)
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		r.markUnsupported(err)
		return fn(ctx)
	}
	return err
}

// Transactional reports whether Run still uses transactions.
func (r *Runner) Transactional() bool { return !r.unsupported.Load() }

func (r *Runner) markUnsupported(err error) {
	if r.unsupported.CompareAndSwap(false, true) {
		r.log.Warn("transactions not supported by this deployment; running multi-document writes without one",
			zap.Error(err))
	}
}

// IsNotSupported reports whether err means the server cannot run
// transactions (standalone server, old version, or session misuse).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263:
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	keywords := []string{"transaction", "replica set", "session", "not supported", "illegal operation"}
	hits := 0
	for _, k := range keywords {
		if strings.Contains(msg, k) {
			hits++
		}
	}
	return hits >= 2
}
