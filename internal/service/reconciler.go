package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/juulhao/payhook/internal/repository"
)

// Result - итог сверки
type Result string

const (
	ResultApplied Result = "applied"
	ResultSkipped Result = "skipped"
)

// SkipReason - почему сверка ничего не записала
type SkipReason string

const (
	ReasonNone                     SkipReason = ""
	ReasonTerminalStateImmutable   SkipReason = "terminal-state-immutable"
	ReasonDuplicate                SkipReason = "duplicate"
	ReasonMissingExternalReference SkipReason = "missing-external-reference"
	ReasonUnknownStatus            SkipReason = "unknown-status"
)

// Outcome - явный результат Reconcile. State - состояние заказа после сверки.
type Outcome struct {
	Result Result
	Reason SkipReason
	State  repository.OrderPaymentState
}

// Applied сообщает, была ли запись
func (o Outcome) Applied() bool {
	return o.Result == ResultApplied
}

func skipped(reason SkipReason, state repository.OrderPaymentState) Outcome {
	return Outcome{Result: ResultSkipped, Reason: reason, State: state}
}

// Reconciler применяет статус платежа к состоянию заказа:
//
//	pending --(approved)--> paid
//	pending --(rejected)--> rejected
//	pending --(cancelled)--> cancelled
//	pending --(pending)--> pending
//	<terminal> --(any)--> <terminal>   (skipped)
//
// Upsert и Emit выполняются best-effort: ошибки логируются и не меняют Outcome.
type Reconciler struct {
	logger       *zap.Logger
	store        repository.OrderStore
	notifier     Notifier
	locker       Locker
	storeTimeout time.Duration
	metrics      MetricsRecorder
	now          func() time.Time
	newEventID   func() string
}

// NewReconciler создаёт Reconciler. storeTimeout ограничивает захват блокировки и каждый вызов store/notifier.
func NewReconciler(logger *zap.Logger, store repository.OrderStore, notifier Notifier, locker Locker, storeTimeout time.Duration, metrics MetricsRecorder) *Reconciler {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Reconciler{
		logger:       logger,
		store:        store,
		notifier:     notifier,
		locker:       locker,
		storeTimeout: storeTimeout,
		metrics:      metrics,
		now:          time.Now,
		newEventID:   uuid.NewString,
	}
}

// WithClock подменяет часы (для тестов)
func (r *Reconciler) WithClock(now func() time.Time) *Reconciler {
	r.now = now
	return r
}

// Reconcile сверяет details с записанным состоянием заказа.
// Ошибка возвращается только если решение принять нельзя: не удалось захватить блокировку
// или прочитать текущее состояние.
func (r *Reconciler) Reconcile(ctx context.Context, details PaymentDetails) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "Reconciler.Reconcile")
	defer span.End()

	log := r.logger.With(
		zap.String("external_reference", details.ExternalReference),
		zap.String("payment_id", details.ID),
		zap.String("provider_status", string(details.Status)),
	)

	outcome, err := r.reconcile(ctx, details, log)
	if err != nil {
		span.RecordError(err)
		return Outcome{}, err
	}

	span.SetAttributes(
		attribute.String("reconcile.result", string(outcome.Result)),
		attribute.String("reconcile.reason", string(outcome.Reason)),
	)
	r.metrics.RecordReconcile(ctx, outcome.Result, outcome.Reason)
	return outcome, nil
}

func (r *Reconciler) reconcile(ctx context.Context, details PaymentDetails, log *zap.Logger) (Outcome, error) {
	if details.ExternalReference == "" {
		log.Warn("payment has no external reference, nothing to reconcile")
		return skipped(ReasonMissingExternalReference, repository.OrderPaymentState{}), nil
	}

	next, ok := details.Status.OrderStatus()
	if !ok {
		log.Warn("payment status is not tracked, skipping", zap.String("raw_status", details.RawStatus))
		return skipped(ReasonUnknownStatus, repository.OrderPaymentState{}), nil
	}

	lockCtx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	release, err := r.locker.Lock(lockCtx, details.ExternalReference)
	cancel()
	if err != nil {
		return Outcome{}, fmt.Errorf("lock %s: %w", details.ExternalReference, err)
	}
	defer release()

	current, found, err := r.currentState(ctx, details.ExternalReference)
	if err != nil {
		return Outcome{}, err
	}

	if found {
		if reason, skip := transitionSkip(current, next, details.ID); skip {
			log.Info("payment notification skipped",
				zap.String("reason", string(reason)),
				zap.String("current_status", string(current.PaymentStatus)),
				zap.String("new_status", string(next)),
			)
			return skipped(reason, current), nil
		}
	}

	state := repository.OrderPaymentState{
		ExternalReference: details.ExternalReference,
		PaymentStatus:     next,
		PaymentID:         details.ID,
		UpdatedAt:         r.now().UTC(),
	}
	r.apply(ctx, state, details, log)

	log.Info("payment status applied",
		zap.String("previous_status", string(current.PaymentStatus)),
		zap.String("new_status", string(next)),
	)
	return Outcome{Result: ResultApplied, State: state}, nil
}

// transitionSkip решает, пропускать ли переход из current в next.
// Повторная доставка pending с тем же payment id тоже duplicate.
func transitionSkip(current repository.OrderPaymentState, next repository.PaymentStatus, paymentID string) (SkipReason, bool) {
	if current.PaymentStatus.IsTerminal() {
		if current.PaymentStatus == next {
			return ReasonDuplicate, true
		}
		return ReasonTerminalStateImmutable, true
	}
	if current.PaymentStatus == next && current.PaymentID == paymentID {
		return ReasonDuplicate, true
	}
	return ReasonNone, false
}

func (r *Reconciler) currentState(ctx context.Context, ref string) (repository.OrderPaymentState, bool, error) {
	storeCtx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	defer cancel()

	current, err := r.store.Get(storeCtx, ref)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.OrderPaymentState{}, false, nil
	}
	if err != nil {
		return repository.OrderPaymentState{}, false, fmt.Errorf("get order state %s: %w", ref, err)
	}
	return current, true, nil
}

func (r *Reconciler) apply(ctx context.Context, state repository.OrderPaymentState, details PaymentDetails, log *zap.Logger) {
	storeCtx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	err := r.store.Upsert(storeCtx, state.ExternalReference, state.PaymentStatus, state.PaymentID, state.UpdatedAt)
	cancel()
	if err != nil {
		log.Error("failed to persist order payment state", zap.Error(err))
	}

	event := repository.PaymentEvent{
		ID:                r.newEventID(),
		ExternalReference: state.ExternalReference,
		Event:             "payment_" + string(details.Status),
		PaymentID:         details.ID,
		Status:            string(details.Status),
		Amount:            details.TransactionAmount,
		Currency:          details.Currency,
		Timestamp:         state.UpdatedAt,
	}

	emitCtx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	err = r.notifier.Emit(emitCtx, event)
	cancel()
	if err != nil {
		log.Error("failed to emit payment event", zap.Error(err), zap.String("event", event.Event))
	}
}
