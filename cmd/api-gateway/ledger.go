package main

import (
	"context"
	"time"

	"github.com/noah-isme/yoga-escrow-api/internal/models"
	"github.com/noah-isme/yoga-escrow-api/internal/repository"
)

// timeoutLedger bounds every index query by the configured ledger timeout.
type timeoutLedger struct {
	repo    *repository.EscrowRepository
	timeout time.Duration
}

func (l *timeoutLedger) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, l.timeout)
}

func (l *timeoutLedger) ListAll(ctx context.Context) ([]models.RawEscrow, error) {
	ctx, cancel := l.bound(ctx)
	defer cancel()
	return l.repo.ListAll(ctx)
}

func (l *timeoutLedger) ListByStudent(ctx context.Context, student string) ([]models.RawEscrow, error) {
	ctx, cancel := l.bound(ctx)
	defer cancel()
	return l.repo.ListByStudent(ctx, student)
}

func (l *timeoutLedger) FindByID(ctx context.Context, id uint64) (*models.RawEscrow, error) {
	ctx, cancel := l.bound(ctx)
	defer cancel()
	return l.repo.FindByID(ctx, id)
}
