package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"prico-realtime/internal/mocks"
)

func TestEmitPublishesEnvelope(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := NewAuditEmitter(publisher, "audit.realtime", "prico-realtime", "test")

	userID := "user_2abc"
	publisher.On("PublishJSON", mock.Anything, "audit.realtime", mock.MatchedBy(func(msg interface{}) bool {
		envelope, ok := msg.(AuditEnvelope)
		if !ok {
			return false
		}
		return envelope.SchemaVersion == 1 &&
			envelope.EventType == "audit_log" &&
			envelope.Service == "prico-realtime" &&
			envelope.RequestID == "req-1" &&
			envelope.UserID != nil && *envelope.UserID == userID &&
			envelope.Payload.Level == "INFO" &&
			envelope.Payload.Text == "message deleted"
	}), map[string]string(nil)).Return(nil).Once()

	emitter.Emit(context.Background(), "INFO", "message deleted", "req-1", &userID)

	publisher.AssertExpectations(t)
}

func TestEmitNilEmitterIsNoop(t *testing.T) {
	var emitter *AuditEmitter
	assert.NotPanics(t, func() {
		emitter.Emit(context.Background(), "INFO", "noop", "req-1", nil)
	})
}

func TestEmitPublishErrorIsSwallowed(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := NewAuditEmitter(publisher, "audit.realtime", "prico-realtime", "test")

	publisher.On("PublishJSON", mock.Anything, "audit.realtime", mock.Anything, map[string]string(nil)).
		Return(assert.AnError).Once()

	require.NotPanics(t, func() {
		emitter.Emit(context.Background(), "ERROR", "boom", "req-2", nil)
	})
	publisher.AssertExpectations(t)
}
