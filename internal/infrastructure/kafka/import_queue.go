package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bibbank/origination/internal/application/dto"
	"github.com/bibbank/origination/internal/domain/model"
	"github.com/bibbank/origination/internal/domain/port"
	pkgkafka "github.com/bibbank/origination/pkg/kafka"
)

var _ port.ImportQueue = (*ImportQueue)(nil)

// ImportQueue hands import jobs to workers through a Kafka topic. The message
// carries only the job ID; workers load the job from the job store.
type ImportQueue struct {
	producer MessagePublisher
	topic    string
}

// NewImportQueue creates a queue writing to topic.
func NewImportQueue(producer MessagePublisher, topic string) *ImportQueue {
	return &ImportQueue{producer: producer, topic: topic}
}

// Enqueue publishes the job reference.
func (q *ImportQueue) Enqueue(ctx context.Context, job model.ImportJob) error {
	payload, err := json.Marshal(dto.RunImportRequest{JobID: job.ID()})
	if err != nil {
		return fmt.Errorf("marshal import job %s: %w", job.ID(), err)
	}

	msg := pkgkafka.Message{
		Key:   []byte(job.ID()),
		Value: payload,
		Headers: map[string]string{
			"import_kind": string(job.Kind()),
		},
	}
	if err := q.producer.Publish(ctx, q.topic, msg); err != nil {
		return fmt.Errorf("enqueue import job %s: %w", job.ID(), err)
	}
	return nil
}
