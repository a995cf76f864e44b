package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/yoga-escrow-api/internal/dto"
	"github.com/noah-isme/yoga-escrow-api/internal/models"
	appErrors "github.com/noah-isme/yoga-escrow-api/pkg/errors"
	"github.com/noah-isme/yoga-escrow-api/pkg/jobs"
)

// ActionJobType tags escrow action jobs on the worker queue.
const ActionJobType = "escrow.action"

type escrowFinder interface {
	FindByID(ctx context.Context, id uint64) (*models.RawEscrow, error)
}

// TransactionSubmitter signs and broadcasts an escrow action, returning the tx hash.
type TransactionSubmitter interface {
	Submit(ctx context.Context, action models.EscrowAction) (string, error)
}

type actionQueue interface {
	Enqueue(job jobs.Job) error
}

type snapshotInvalidator interface {
	InvalidateSnapshot(ctx context.Context) error
}

// ActionServiceParams groups constructor dependencies.
type ActionServiceParams struct {
	Ledger      escrowFinder
	Submitter   TransactionSubmitter
	Invalidator snapshotInvalidator
	Validator   *validator.Validate
	Metrics     *MetricsService
	Logger      *zap.Logger
}

// ActionService validates teacher actions against the ledger and hands them to the
// submission worker. Tracked actions live in memory for the life of the process.
type ActionService struct {
	ledger      escrowFinder
	submitter   TransactionSubmitter
	invalidator snapshotInvalidator
	validator   *validator.Validate
	metrics     *MetricsService
	logger      *zap.Logger
	now         func() time.Time

	queue actionQueue

	mu      sync.RWMutex
	actions map[string]*models.TrackedAction
}

// NewActionService constructs an ActionService.
func NewActionService(params ActionServiceParams) *ActionService {
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActionService{
		ledger:      params.Ledger,
		submitter:   params.Submitter,
		invalidator: params.Invalidator,
		validator:   validate,
		metrics:     params.Metrics,
		logger:      logger,
		now:         time.Now,
		actions:     make(map[string]*models.TrackedAction),
	}
}

// AttachQueue sets the queue actions are dispatched to. The queue's handler is usually
// HandleJob on this same service, so it is wired after construction.
func (s *ActionService) AttachQueue(queue actionQueue) {
	s.queue = queue
}

// Submit validates req for the teacher identified by handle and enqueues it.
func (s *ActionService) Submit(ctx context.Context, handle string, req dto.SubmitActionRequest) (*models.TrackedAction, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid action payload")
	}
	handle, err := NormalizeHandle(handle)
	if err != nil {
		return nil, err
	}

	action := models.EscrowAction{
		Type:     models.ActionType(req.Type),
		EscrowID: *req.EscrowID,
		Reason:   strings.TrimSpace(req.Reason),
	}
	switch action.Type {
	case models.ActionAccept:
		if req.TimeIndex == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "timeIndex is required to accept")
		}
		action.TimeIndex = copyIndex(req.TimeIndex)
		action.Handle = handle
	case models.ActionDispute:
		if action.Reason == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "reason is required to dispute")
		}
	}

	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "escrow actions are disabled")
	}
	if s.ledger == nil {
		return nil, appErrors.Clone(appErrors.ErrLedgerUnavailable, "ledger reader not configured")
	}

	escrow, err := s.ledger.FindByID(ctx, action.EscrowID)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrLedgerUnavailable.Code, appErrors.ErrLedgerUnavailable.Status, "failed to load escrow")
	}

	now := s.now()
	if err := checkPreconditions(*escrow, action, handle, now); err != nil {
		return nil, err
	}

	tracked := &models.TrackedAction{
		ID:          uuid.NewString(),
		Action:      action,
		RequestedBy: handle,
		Status:      models.ActionQueued,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}
	s.mu.Lock()
	s.actions[tracked.ID] = tracked
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: tracked.ID, Type: ActionJobType, Payload: action}); err != nil {
		s.mu.Lock()
		delete(s.actions, tracked.ID)
		s.mu.Unlock()
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "action queue is busy, try again shortly")
	}

	s.metrics.RecordAction(action.Type, models.ActionQueued)
	s.logger.Info("escrow action queued",
		zap.String("action_id", tracked.ID),
		zap.String("type", string(action.Type)),
		zap.Uint64("escrow_id", action.EscrowID),
		zap.String("handle", handle),
	)
	return s.snapshot(tracked), nil
}

// Get returns the tracked action with the given id.
func (s *ActionService) Get(_ context.Context, id string) (*models.TrackedAction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tracked, ok := s.actions[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "action not found")
	}
	return s.snapshot(tracked), nil
}

// HandleJob submits one queued action. It is the queue handler.
func (s *ActionService) HandleJob(ctx context.Context, job jobs.Job) error {
	action, ok := job.Payload.(models.EscrowAction)
	if !ok {
		return fmt.Errorf("%w: unexpected payload %T", jobs.ErrPermanent, job.Payload)
	}
	if s.submitter == nil {
		return fmt.Errorf("%w: no transaction submitter configured", jobs.ErrPermanent)
	}

	s.update(job.ID, func(t *models.TrackedAction) {
		t.Attempts = job.Attempt + 1
	})

	txHash, err := s.submitter.Submit(ctx, action)
	if err != nil {
		s.update(job.ID, func(t *models.TrackedAction) { t.Error = err.Error() })
		return err
	}

	s.update(job.ID, func(t *models.TrackedAction) {
		t.Status = models.ActionSubmitted
		t.TxHash = txHash
		t.Error = ""
	})
	s.metrics.RecordAction(action.Type, models.ActionSubmitted)
	s.logger.Info("escrow action submitted", zap.String("action_id", job.ID), zap.String("tx_hash", txHash))

	if s.invalidator != nil {
		if err := s.invalidator.InvalidateSnapshot(ctx); err != nil {
			s.logger.Warn("snapshot invalidation failed", zap.String("action_id", job.ID), zap.Error(err))
		}
	}
	return nil
}

// OnExhausted marks an action failed once the queue gives up on it.
func (s *ActionService) OnExhausted(job jobs.Job, err error) {
	actionType := models.ActionType("unknown")
	if action, ok := job.Payload.(models.EscrowAction); ok {
		actionType = action.Type
	}
	s.update(job.ID, func(t *models.TrackedAction) {
		t.Status = models.ActionFailed
		if err != nil {
			t.Error = err.Error()
		}
	})
	s.metrics.RecordAction(actionType, models.ActionFailed)
}

func (s *ActionService) update(id string, mutate func(*models.TrackedAction)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tracked, ok := s.actions[id]
	if !ok {
		return
	}
	mutate(tracked)
	tracked.UpdatedAt = s.now().UTC()
}

func (s *ActionService) snapshot(tracked *models.TrackedAction) *models.TrackedAction {
	clone := *tracked
	clone.Action.TimeIndex = copyIndex(tracked.Action.TimeIndex)
	return &clone
}

func checkPreconditions(escrow models.RawEscrow, action models.EscrowAction, handle string, now time.Time) error {
	failed := func(msg string) error {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, msg)
	}
	selected := escrow.IsSelected(handle)

	switch action.Type {
	case models.ActionAccept:
		if escrow.Status != models.EscrowPending {
			return failed("escrow is no longer pending")
		}
		if !escrow.HasCandidate(handle) {
			return appErrors.Clone(appErrors.ErrForbidden, "you are not a candidate teacher for this escrow")
		}
		slot := escrow.TimeSlots[*action.TimeIndex]
		if !slot.Valid {
			return failed("selected time slot is not set")
		}
		if !slot.After(now) {
			return failed("selected time slot has already passed")
		}
	case models.ActionRelease:
		if escrow.Status != models.EscrowAccepted {
			return failed("only accepted escrows can be released")
		}
		if !selected {
			return appErrors.Clone(appErrors.ErrForbidden, "you are not the confirmed teacher")
		}
	case models.ActionCancel:
		if escrow.Status != models.EscrowPending && escrow.Status != models.EscrowAccepted {
			return failed("only pending or accepted escrows can be cancelled")
		}
		if !selected && !escrow.HasCandidate(handle) {
			return appErrors.Clone(appErrors.ErrForbidden, "you are not a party to this escrow")
		}
	case models.ActionDispute:
		if escrow.Status != models.EscrowAccepted && escrow.Status != models.EscrowDelivered {
			return failed("only accepted or delivered escrows can be disputed")
		}
		if !selected {
			return appErrors.Clone(appErrors.ErrForbidden, "you are not the confirmed teacher")
		}
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unsupported action type")
	}
	return nil
}
