package service

import (
	"context"
	"database/sql"

	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/policy"
	"go-pos-backoffice/internal/repository"
	"go-pos-backoffice/internal/txn"
	"go-pos-backoffice/pkg/apperror"
)

type SequenceService interface {
	// NextCode issues the next sequential code for prefix, e.g. PO00000042.
	NextCode(ctx context.Context, actor policy.Actor, prefix string) (string, error)
}

type sequenceService struct {
	tx *txn.Coordinator
}

func NewSequenceService(tx *txn.Coordinator) SequenceService {
	return &sequenceService{tx: tx}
}

func (s *sequenceService) NextCode(ctx context.Context, actor policy.Actor, prefix string) (string, error) {
	if err := begin(actor, policy.OpNextCode, nil); err != nil {
		return "", err
	}
	if !model.IsCodePrefix(prefix) {
		return "", apperror.Validationf("unknown code prefix %q", prefix)
	}

	var code string
	err := s.tx.Run(ctx, "sequence.next", func(ctx context.Context, repos *repository.Repositories) error {
		var err error
		code, err = allocateCode(ctx, repos, prefix)
		return err
	}, txn.WithLocks(sequenceLock(prefix)), txn.WithIsolation(sql.LevelSerializable))
	if err != nil {
		return "", err
	}
	return code, nil
}
