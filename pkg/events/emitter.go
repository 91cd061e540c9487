// Package events handles event emission for record lifecycle changes.
// Emission is fire-and-forget from the caller's perspective: the write path
// logs publish failures but never fails a mutation over them.
package events

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/laurel/pkg/kafka"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// Emitter publishes record lifecycle events
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitRecordCreated emits a record.created event
func (e *Emitter) EmitRecordCreated(ctx context.Context, record *models.Record) {
	e.emit(ctx, "record.created", record.TenantID, record.ID, record.RecordTypeID, record.FieldValues)
}

// EmitRecordUpdated emits a record.updated event
func (e *Emitter) EmitRecordUpdated(ctx context.Context, record *models.Record) {
	e.emit(ctx, "record.updated", record.TenantID, record.ID, record.RecordTypeID, record.FieldValues)
}

// EmitRecordDeleted emits a record.deleted event
func (e *Emitter) EmitRecordDeleted(ctx context.Context, tenantID, recordID, recordTypeID string) {
	e.emit(ctx, "record.deleted", tenantID, recordID, recordTypeID, nil)
}

func (e *Emitter) emit(ctx context.Context, eventType, tenantID, recordID, recordTypeID string, data []byte) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.emit")
	defer span.End()

	if e.producer == nil {
		return
	}

	event := &kafka.RecordEvent{
		EventType:    eventType,
		TenantID:     tenantID,
		RecordID:     recordID,
		RecordTypeID: recordTypeID,
		Data:         data,
	}

	if err := e.producer.PublishRecordEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"event_type": eventType,
			"record_id":  recordID,
		}).Error("Failed to emit record event")
	}
}
