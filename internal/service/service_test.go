package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/juulhao/payhook/internal/repository"
	"github.com/juulhao/payhook/internal/repository/memory"
	repoMocks "github.com/juulhao/payhook/internal/repository/mocks"
	"github.com/juulhao/payhook/internal/service"
	"github.com/juulhao/payhook/internal/service/mocks"
)

var testConfig = service.Config{
	ProviderTimeout: time.Second,
	StoreTimeout:    time.Second,
}

func newService(query service.PaymentQuery, store repository.OrderStore, events repository.EventLog) *service.Service {
	svc := service.NewService(zap.NewNop(), testConfig, query, store, events,
		service.NewEventLogNotifier(events), service.NewKeyedMutex(), nil)
	svc.Reconciler().WithClock(func() time.Time { return fixedNow })
	return svc
}

func TestService_HandleWebhook_Rejected(t *testing.T) {
	// Ни провайдер, ни хранилище не должны вызываться
	query := mocks.NewPaymentQuery(t)
	store := repoMocks.NewOrderStore(t)
	svc := newService(query, store, memory.NewEventLog(0))

	for _, body := range []string{
		`{"data":{"id":"1"}}`,
		`{"type":"payment"}`,
		`{"topic":"payment","data":{}}`,
		`not json`,
	} {
		_, err := svc.HandleWebhook(context.Background(), []byte(body), http.Header{})
		require.ErrorIs(t, err, service.ErrMalformedNotification, body)
	}
}

func TestService_HandleWebhook(t *testing.T) {
	ctx := context.Background()

	t.Run("payment applied", func(t *testing.T) {
		query := mocks.NewPaymentQuery(t)
		store := memory.NewOrderStore()
		events := memory.NewEventLog(0)
		query.On("GetPayment", mock.Anything, "111").Return(details("ORD-1", "111", service.ProviderApproved), nil).Once()

		res, err := newService(query, store, events).HandleWebhook(ctx, []byte(`{"type":"payment","action":"payment.updated","data":{"id":"111"}}`), http.Header{})
		require.NoError(t, err)
		require.Equal(t, service.WebhookReceived, res.Status)
		require.NotNil(t, res.Outcome)
		require.Equal(t, service.ResultApplied, res.Outcome.Result)

		state, err := store.Get(ctx, "ORD-1")
		require.NoError(t, err)
		require.Equal(t, repository.StatusPaid, state.PaymentStatus)

		list, err := events.ListByReference(ctx, "ORD-1", 10)
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Equal(t, "payment_approved", list[0].Event)
	})

	t.Run("merchant order is acknowledged without lookup", func(t *testing.T) {
		query := mocks.NewPaymentQuery(t)
		store := repoMocks.NewOrderStore(t)

		res, err := newService(query, store, memory.NewEventLog(0)).HandleWebhook(ctx, []byte(`{"topic":"merchant_order","data":{"id":"5"}}`), http.Header{})
		require.NoError(t, err)
		require.Equal(t, service.WebhookReceived, res.Status)
		require.Nil(t, res.Outcome)
	})

	t.Run("lookup failure never reaches reconciler", func(t *testing.T) {
		query := mocks.NewPaymentQuery(t)
		store := repoMocks.NewOrderStore(t)
		query.On("GetPayment", mock.Anything, "111").Return(service.PaymentDetails{}, errors.New("status 500")).Once()

		res, err := newService(query, store, memory.NewEventLog(0)).HandleWebhook(ctx, []byte(`{"type":"payment","data":{"id":"111"}}`), http.Header{})
		require.NoError(t, err)
		require.Equal(t, service.WebhookError, res.Status)
		require.Nil(t, res.Outcome)
		store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("store read failure reports error", func(t *testing.T) {
		query := mocks.NewPaymentQuery(t)
		store := repoMocks.NewOrderStore(t)
		query.On("GetPayment", mock.Anything, "111").Return(details("ORD-1", "111", service.ProviderApproved), nil).Once()
		store.On("Get", mock.Anything, "ORD-1").Return(repository.OrderPaymentState{}, errors.New("timeout")).Once()

		res, err := newService(query, store, memory.NewEventLog(0)).HandleWebhook(ctx, []byte(`{"type":"payment","data":{"id":"111"}}`), http.Header{})
		require.NoError(t, err)
		require.Equal(t, service.WebhookError, res.Status)
	})

	t.Run("skip is still received", func(t *testing.T) {
		query := mocks.NewPaymentQuery(t)
		store := memory.NewOrderStore()
		require.NoError(t, store.Upsert(ctx, "ORD-1", repository.StatusPaid, "111", fixedNow))
		query.On("GetPayment", mock.Anything, "111").Return(details("ORD-1", "111", service.ProviderPending), nil).Once()

		res, err := newService(query, store, memory.NewEventLog(0)).HandleWebhook(ctx, []byte(`{"type":"payment","data":{"id":"111"}}`), http.Header{})
		require.NoError(t, err)
		require.Equal(t, service.WebhookReceived, res.Status)
		require.Equal(t, service.ReasonTerminalStateImmutable, res.Outcome.Reason)
	})

	t.Run("lookup is bounded by provider timeout", func(t *testing.T) {
		query := mocks.NewPaymentQuery(t)
		query.On("GetPayment", mock.Anything, "111").Return(func(ctx context.Context, _ string) (service.PaymentDetails, error) {
			deadline, ok := ctx.Deadline()
			require.True(t, ok)
			require.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
			return service.PaymentDetails{}, ctx.Err()
		}).Once()

		svc := newService(query, memory.NewOrderStore(), memory.NewEventLog(0))
		_, err := svc.HandleWebhook(ctx, []byte(`{"type":"payment","data":{"id":"111"}}`), http.Header{})
		require.NoError(t, err)
	})
}

func TestService_RefreshPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("approved payment wins", func(t *testing.T) {
		query := mocks.NewPaymentQuery(t)
		store := memory.NewOrderStore()

		older := details("ORD-1", "1", service.ProviderRejected)
		approved := details("ORD-1", "2", service.ProviderApproved)
		newest := details("ORD-1", "3", service.ProviderPending)
		newest.DateCreated = fixedNow
		query.On("SearchPayments", mock.Anything, "ORD-1").Return([]service.PaymentDetails{older, approved, newest}, nil).Once()

		outcome, picked, err := newService(query, store, memory.NewEventLog(0)).RefreshPayment(ctx, "ORD-1")
		require.NoError(t, err)
		require.Equal(t, "2", picked.ID)
		require.Equal(t, service.ResultApplied, outcome.Result)
		require.Equal(t, repository.StatusPaid, outcome.State.PaymentStatus)
	})

	t.Run("fills missing reference from request", func(t *testing.T) {
		query := mocks.NewPaymentQuery(t)
		store := memory.NewOrderStore()
		query.On("SearchPayments", mock.Anything, "ORD-2").Return([]service.PaymentDetails{details("", "9", service.ProviderPending)}, nil).Once()

		outcome, _, err := newService(query, store, memory.NewEventLog(0)).RefreshPayment(ctx, "ORD-2")
		require.NoError(t, err)
		require.Equal(t, "ORD-2", outcome.State.ExternalReference)
	})

	t.Run("no payments", func(t *testing.T) {
		query := mocks.NewPaymentQuery(t)
		query.On("SearchPayments", mock.Anything, "ORD-3").Return(nil, nil).Once()

		_, _, err := newService(query, repoMocks.NewOrderStore(t), memory.NewEventLog(0)).RefreshPayment(ctx, "ORD-3")
		require.ErrorIs(t, err, service.ErrNoPayments)
		require.NotErrorIs(t, err, service.ErrPaymentNotFound)
	})

	t.Run("search failure", func(t *testing.T) {
		query := mocks.NewPaymentQuery(t)
		searchErr := errors.New("status 401")
		query.On("SearchPayments", mock.Anything, "ORD-4").Return(nil, searchErr).Once()

		_, _, err := newService(query, repoMocks.NewOrderStore(t), memory.NewEventLog(0)).RefreshPayment(ctx, "ORD-4")
		require.ErrorIs(t, err, searchErr)
		require.ErrorIs(t, err, service.ErrPaymentNotFound)
	})

	t.Run("store failure is not a provider error", func(t *testing.T) {
		query := mocks.NewPaymentQuery(t)
		store := repoMocks.NewOrderStore(t)
		storeErr := errors.New("connection reset")
		query.On("SearchPayments", mock.Anything, "ORD-5").Return([]service.PaymentDetails{details("ORD-5", "5", service.ProviderApproved)}, nil).Once()
		store.On("Get", mock.Anything, "ORD-5").Return(repository.OrderPaymentState{}, storeErr).Once()

		_, _, err := newService(query, store, memory.NewEventLog(0)).RefreshPayment(ctx, "ORD-5")
		require.ErrorIs(t, err, storeErr)
		require.NotErrorIs(t, err, service.ErrPaymentNotFound)
		require.NotErrorIs(t, err, service.ErrNoPayments)
	})
}

func TestService_Queries(t *testing.T) {
	ctx := context.Background()
	query := mocks.NewPaymentQuery(t)
	store := repoMocks.NewOrderStore(t)
	events := repoMocks.NewEventLog(t)
	svc := newService(query, store, events)

	query.On("GetPayment", mock.Anything, "404").Return(service.PaymentDetails{}, errors.New("status 404")).Once()
	_, err := svc.GetPayment(ctx, "404")
	require.ErrorIs(t, err, service.ErrPaymentNotFound)

	store.On("Get", mock.Anything, "ORD-1").Return(repository.OrderPaymentState{}, repository.ErrNotFound).Once()
	_, err = svc.OrderState(ctx, "ORD-1")
	require.ErrorIs(t, err, repository.ErrNotFound)

	events.On("ListByReference", mock.Anything, "ORD-1", 5).Return([]repository.PaymentEvent{{ID: "e1"}}, nil).Once()
	list, err := svc.ListEvents(ctx, "ORD-1", 5)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestMultiNotifier(t *testing.T) {
	ctx := context.Background()
	first := mocks.NewNotifier(t)
	second := mocks.NewNotifier(t)
	event := repository.PaymentEvent{ID: "e1"}

	first.On("Emit", ctx, event).Return(errors.New("kafka down")).Once()
	second.On("Emit", ctx, event).Return(nil).Once()

	err := service.MultiNotifier{first, second}.Emit(ctx, event)
	require.ErrorContains(t, err, "kafka down")
}
