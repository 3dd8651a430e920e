package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/origination/internal/application/dto"
	"github.com/bibbank/origination/internal/domain/event"
	"github.com/bibbank/origination/internal/domain/model"
	"github.com/bibbank/origination/internal/domain/port"
	"github.com/bibbank/origination/internal/domain/valueobject"
	"github.com/bibbank/origination/internal/infrastructure/kafka"
	pkgkafka "github.com/bibbank/origination/pkg/kafka"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type published struct {
	topic    string
	messages []pkgkafka.Message
}

type mockProducer struct {
	publishFunc func(ctx context.Context, topic string, messages ...pkgkafka.Message) error
	calls       []published
}

func (m *mockProducer) Publish(ctx context.Context, topic string, messages ...pkgkafka.Message) error {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, topic, messages...)
	}
	m.calls = append(m.calls, published{topic: topic, messages: messages})
	return nil
}

type mockRunner struct {
	executeFunc func(ctx context.Context, req dto.RunImportRequest) (dto.ImportJobResponse, error)
	requests    []dto.RunImportRequest
}

func (m *mockRunner) Execute(ctx context.Context, req dto.RunImportRequest) (dto.ImportJobResponse, error) {
	m.requests = append(m.requests, req)
	if m.executeFunc != nil {
		return m.executeFunc(ctx, req)
	}
	return dto.ImportJobResponse{JobID: req.JobID, Status: "SUCCEEDED"}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ---------------------------------------------------------------------------
// EventPublisher
// ---------------------------------------------------------------------------

func TestEventPublisher_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("one message per event keyed by aggregate", func(t *testing.T) {
		producer := &mockProducer{}
		pub := kafka.NewEventPublisher(producer, "origination.events", discardLogger())

		created := event.NewLoanCreated(7, 3, decimal.NewFromInt(100000), decimal.NewFromInt(12), 12,
			decimal.RequireFromString("8884.88"), decimal.NewFromInt(80))
		registered := event.NewCustomerRegistered(3, "Ada Lovelace", decimal.NewFromInt(50000), decimal.NewFromInt(1800000))

		require.NoError(t, pub.Publish(ctx, created, registered))
		require.Len(t, producer.calls, 1)
		call := producer.calls[0]
		assert.Equal(t, "origination.events", call.topic)
		require.Len(t, call.messages, 2)

		msg := call.messages[0]
		assert.Equal(t, "7", string(msg.Key))
		assert.Equal(t, event.TypeLoanCreated, msg.Headers["event_type"])
		assert.Equal(t, created.EventID(), msg.Headers["event_id"])

		var body map[string]any
		require.NoError(t, json.Unmarshal(msg.Value, &body))
		assert.Equal(t, event.TypeLoanCreated, body["event_type"])
		assert.EqualValues(t, 3, body["customer_id"])

		assert.Equal(t, "3", string(call.messages[1].Key))
	})

	t.Run("no events is a no-op", func(t *testing.T) {
		producer := &mockProducer{}
		pub := kafka.NewEventPublisher(producer, "origination.events", discardLogger())

		require.NoError(t, pub.Publish(ctx))
		assert.Empty(t, producer.calls)
	})

	t.Run("producer failure", func(t *testing.T) {
		producer := &mockProducer{
			publishFunc: func(context.Context, string, ...pkgkafka.Message) error {
				return errors.New("broker unavailable")
			},
		}
		pub := kafka.NewEventPublisher(producer, "origination.events", discardLogger())

		err := pub.Publish(ctx, event.NewImportFinished("job-1", "SUCCEEDED", "", 1, 0, 2, 0))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "origination.events")
	})
}

// ---------------------------------------------------------------------------
// ImportQueue
// ---------------------------------------------------------------------------

func TestImportQueue_Enqueue(t *testing.T) {
	ctx := context.Background()
	job, err := model.NewImportJob(valueobject.ImportKindLoans, "", "/data/loan_data.xlsx", time.Now())
	require.NoError(t, err)

	t.Run("publishes the job id", func(t *testing.T) {
		producer := &mockProducer{}
		queue := kafka.NewImportQueue(producer, "origination.import-jobs")

		require.NoError(t, queue.Enqueue(ctx, job))
		require.Len(t, producer.calls, 1)
		assert.Equal(t, "origination.import-jobs", producer.calls[0].topic)

		msg := producer.calls[0].messages[0]
		assert.Equal(t, job.ID(), string(msg.Key))
		assert.Equal(t, "loans", msg.Headers["import_kind"])

		var req dto.RunImportRequest
		require.NoError(t, json.Unmarshal(msg.Value, &req))
		assert.Equal(t, job.ID(), req.JobID)
	})

	t.Run("producer failure", func(t *testing.T) {
		producer := &mockProducer{
			publishFunc: func(context.Context, string, ...pkgkafka.Message) error {
				return errors.New("broker unavailable")
			},
		}
		err := kafka.NewImportQueue(producer, "origination.import-jobs").Enqueue(ctx, job)
		require.Error(t, err)
		assert.Contains(t, err.Error(), job.ID())
	})
}

// ---------------------------------------------------------------------------
// ImportWorker
// ---------------------------------------------------------------------------

func TestImportWorker_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("runs the referenced job", func(t *testing.T) {
		runner := &mockRunner{}
		worker := kafka.NewImportWorker(runner, discardLogger())

		err := worker.Handle(ctx, pkgkafka.Message{Value: []byte(`{"job_id":"job-1"}`)})
		require.NoError(t, err)
		require.Len(t, runner.requests, 1)
		assert.Equal(t, "job-1", runner.requests[0].JobID)
	})

	t.Run("malformed messages are dropped", func(t *testing.T) {
		runner := &mockRunner{}
		worker := kafka.NewImportWorker(runner, discardLogger())

		require.NoError(t, worker.Handle(ctx, pkgkafka.Message{Value: []byte(`not json`)}))
		require.NoError(t, worker.Handle(ctx, pkgkafka.Message{Value: []byte(`{}`)}))
		assert.Empty(t, runner.requests)
	})

	t.Run("unknown job is dropped", func(t *testing.T) {
		runner := &mockRunner{
			executeFunc: func(_ context.Context, req dto.RunImportRequest) (dto.ImportJobResponse, error) {
				return dto.ImportJobResponse{}, fmt.Errorf("load import job: %w: %s", port.ErrImportJobNotFound, req.JobID)
			},
		}
		worker := kafka.NewImportWorker(runner, discardLogger())

		assert.NoError(t, worker.Handle(ctx, pkgkafka.Message{Value: []byte(`{"job_id":"gone"}`)}))
	})

	t.Run("other failures are returned for redelivery", func(t *testing.T) {
		runner := &mockRunner{
			executeFunc: func(context.Context, dto.RunImportRequest) (dto.ImportJobResponse, error) {
				return dto.ImportJobResponse{}, errors.New("job store unavailable")
			},
		}
		worker := kafka.NewImportWorker(runner, discardLogger())

		err := worker.Handle(ctx, pkgkafka.Message{Value: []byte(`{"job_id":"job-1"}`)})
		assert.EqualError(t, err, "job store unavailable")
	})
}
