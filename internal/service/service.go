package service

import (
	"context"
	"errors"
	"fmt"

	"go-pos-backoffice/internal/policy"
	"go-pos-backoffice/internal/pricing"
	"go-pos-backoffice/internal/repository"
	"go-pos-backoffice/internal/txn"
	"go-pos-backoffice/internal/ws"
	"go-pos-backoffice/pkg/apperror"
	"go-pos-backoffice/pkg/validator"
)

// EventPublisher receives events for committed changes.
type EventPublisher interface {
	Publish(event ws.Event)
}

type discardPublisher struct{}

func (discardPublisher) Publish(ws.Event) {}

func publisherOrDiscard(p EventPublisher) EventPublisher {
	if p == nil {
		return discardPublisher{}
	}
	return p
}

// publishAfterCommit queues event until the enclosing unit of work commits.
func publishAfterCommit(ctx context.Context, p EventPublisher, event ws.Event) {
	txn.AfterCommit(ctx, func() { p.Publish(event) })
}

func eventActor(actor policy.Actor) ws.EventActor {
	return ws.EventActor{ID: actor.ID, Name: actor.Name, Email: actor.Email}
}

// begin authorizes actor for op, then validates req when given.
func begin(actor policy.Actor, op policy.Operation, req interface{}) error {
	if err := policy.Authorize(actor, op); err != nil {
		return err
	}
	if req == nil {
		return nil
	}
	if msg := validator.FirstError(req); msg != "" {
		return apperror.Validation(msg)
	}
	return nil
}

// lookup turns a repository miss into a NotFound naming the entity.
func lookup(err error, entity string, id interface{}) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFoundf("%s %v not found", entity, id)
	}
	return err
}

// allocateCode takes the next code for prefix inside the running unit of work.
func allocateCode(ctx context.Context, repos *repository.Repositories, prefix string) (string, error) {
	n, err := repos.Sequences.Next(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("next %s sequence: %w", prefix, err)
	}
	return pricing.FormatCode(prefix, n)
}

func sequenceLock(prefix string) string {
	return "sequence:" + prefix
}

func entityLock(entity string, id fmt.Stringer) string {
	return entity + ":" + id.String()
}
