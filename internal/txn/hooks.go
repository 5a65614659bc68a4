package txn

import (
	"context"

	"github.com/sirupsen/logrus"
)

type hooksKey struct{}

type hooks struct {
	fns []func()
}

func withHooks(ctx context.Context, h *hooks) context.Context {
	return context.WithValue(ctx, hooksKey{}, h)
}

// AfterCommit defers fn until the enclosing unit of work has committed. It is dropped on
// rollback. Outside a unit of work fn runs immediately.
func AfterCommit(ctx context.Context, fn func()) {
	h, ok := ctx.Value(hooksKey{}).(*hooks)
	if !ok {
		fn()
		return
	}
	h.fns = append(h.fns, fn)
}

func (h *hooks) run(log logrus.FieldLogger, unit string) {
	for _, fn := range h.fns {
		func() {
			defer func() {
				if p := recover(); p != nil {
					log.WithFields(logrus.Fields{"unit": unit, "panic": p}).Error("after-commit hook panicked")
				}
			}()
			fn()
		}()
	}
}
