package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	argsCall := m.Called(name, durable, autoDelete, exclusive, noWait, args)
	return argsCall.Get(0).(amqp.Queue), argsCall.Error(1)
}

func (m *MockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return m.Called(ctx, exchange, key, mandatory, immediate, msg).Error(0)
}

func (m *MockChannel) Close() error {
	return m.Called().Error(0)
}

func TestPublishWritesPersistentJSON(t *testing.T) {
	ch := &MockChannel{}
	ch.On("QueueDeclare", "events", true, false, false, false, amqp.Table(nil)).Return(amqp.Queue{Name: "events"}, nil)

	var sent amqp.Publishing
	ch.On("PublishWithContext", mock.Anything, "", "events", false, false, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(5).(amqp.Publishing) }).
		Return(nil)

	p, err := newAMQPPublisher(ch, "events")
	require.NoError(t, err)

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	err = p.Publish(context.Background(), Event{Type: OrderCreated, Subject: "o-1", OccurredAt: at})
	require.NoError(t, err)

	assert.Equal(t, "application/json", sent.ContentType)
	assert.Equal(t, amqp.Persistent, sent.DeliveryMode)
	assert.Equal(t, OrderCreated, sent.Type)

	var got Event
	require.NoError(t, json.Unmarshal(sent.Body, &got))
	assert.Equal(t, "o-1", got.Subject)
	assert.True(t, at.Equal(got.OccurredAt))
	ch.AssertExpectations(t)
}

func TestPublishStampsMissingTime(t *testing.T) {
	ch := &MockChannel{}
	ch.On("QueueDeclare", mock.Anything, true, false, false, false, mock.Anything).Return(amqp.Queue{}, nil)

	var sent amqp.Publishing
	ch.On("PublishWithContext", mock.Anything, "", "q", false, false, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(5).(amqp.Publishing) }).
		Return(nil)

	p, err := newAMQPPublisher(ch, "q")
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), Event{Type: UserPromoted}))
	assert.False(t, sent.Timestamp.IsZero())
}

func TestDeclareFailureClosesChannel(t *testing.T) {
	ch := &MockChannel{}
	ch.On("QueueDeclare", mock.Anything, true, false, false, false, mock.Anything).
		Return(amqp.Queue{}, errors.New("access refused"))
	ch.On("Close").Return(nil)

	_, err := newAMQPPublisher(ch, "q")
	assert.Error(t, err)
	ch.AssertCalled(t, "Close")
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), Event{Type: OrderCreated}))
	assert.NoError(t, p.Close())
}
