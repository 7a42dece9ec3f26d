package messaging

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"casetrack/internal/model"

	"github.com/avast/retry-go"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	maxRetryAttempts = 3
	initialDelay     = 1 * time.Second
	maxDelay         = 30 * time.Second
)

// NotificationStore is the slice of the notification repository the
// consumer writes through.
type NotificationStore interface {
	Create(n *model.Notification) error
	IsMessageProcessed(messageID string) (bool, error)
	MarkMessageProcessed(messageID string) error
}

// CaseEventConsumer turns published lifecycle events into durable
// notification rows for the reporter. Deliveries are at-least-once, so a
// processed-message table dedupes by the outbox message ID.
type CaseEventConsumer struct {
	rmq   *RabbitMQ
	store NotificationStore
	done  chan struct{}
	wg    sync.WaitGroup
}

func NewCaseEventConsumer(rmq *RabbitMQ, store NotificationStore) *CaseEventConsumer {
	return &CaseEventConsumer{
		rmq:   rmq,
		store: store,
		done:  make(chan struct{}),
	}
}

func (c *CaseEventConsumer) Start() {
	c.wg.Add(1)
	go c.consume()
	log.Println("consumer: started")
}

func (c *CaseEventConsumer) consume() {
	defer c.wg.Done()

	for {
		select {
		case <-c.done:
			return
		default:
			msgs, err := c.rmq.Consume()
			if err != nil {
				log.Printf("consumer: %v, retrying in 5s...", err)
				time.Sleep(5 * time.Second)
				continue
			}

			c.processMessages(msgs)
		}
	}
}

func (c *CaseEventConsumer) processMessages(msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-c.done:
			return
		case msg, ok := <-msgs:
			if !ok {
				log.Println("consumer: channel closed, reconnecting...")
				return
			}
			c.processMessageWithRetry(msg)
		}
	}
}

func (c *CaseEventConsumer) processMessageWithRetry(msg amqp.Delivery) {
	messageID := msg.MessageId
	if messageID == "" {
		messageID = fmt.Sprintf("%x", msg.Body[:min(32, len(msg.Body))])
	}

	processed, err := c.store.IsMessageProcessed(messageID)
	if err != nil {
		// Fail closed: without the dedupe answer a write could duplicate
		// the notification. Requeue and let a later delivery retry.
		log.Printf("consumer: idempotency check failed for %s: %v, requeueing", messageID, err)
		msg.Nack(false, true)
		return
	}
	if processed {
		log.Printf("consumer: %s already processed", messageID)
		msg.Ack(false)
		return
	}

	err = retry.Do(
		func() error {
			return c.handleCaseEvent(msg)
		},
		retry.Attempts(maxRetryAttempts),
		retry.Delay(initialDelay),
		retry.MaxDelay(maxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("consumer: retry %d: %v", n+1, err)
		}),
	)

	if err != nil {
		// The queue dead-letters rejected messages, so the event is kept
		// for replay instead of being dropped.
		log.Printf("consumer: giving up on %s, sending to dlq: %v", messageID, err)
		msg.Nack(false, false)
		return
	}

	if err := c.store.MarkMessageProcessed(messageID); err != nil {
		log.Printf("consumer: mark processed failed: %v", err)
	}

	msg.Ack(false)
}

func (c *CaseEventConsumer) handleCaseEvent(msg amqp.Delivery) error {
	var event model.CaseEventMessage
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		log.Printf("consumer: bad json: %v", err)
		return nil
	}

	reporterID, err := uuid.Parse(event.ReporterID)
	if err != nil {
		log.Printf("consumer: bad reporter_id: %v", err)
		return nil
	}

	caseRef := event.CaseRef
	notification := &model.Notification{
		ID:        uuid.New(),
		UserID:    reporterID,
		CaseRef:   &caseRef,
		Message:   notificationText(&event),
		Type:      event.Event,
		IsRead:    false,
		CreatedAt: time.Now(),
	}

	return c.store.Create(notification)
}

func notificationText(event *model.CaseEventMessage) string {
	switch event.Event {
	case model.CaseEventSubmitted:
		return fmt.Sprintf("Case %s has been submitted", event.CaseRef)
	case model.CaseEventAssigned:
		return fmt.Sprintf("Case %s has been assigned to %s", event.CaseRef, event.UnitName)
	case model.CaseEventReassigned:
		return fmt.Sprintf("Case %s has been transferred to %s", event.CaseRef, event.UnitName)
	case model.CaseEventCompleted:
		return fmt.Sprintf("Case %s has been completed", event.CaseRef)
	case model.CaseEventWithdrawn:
		return fmt.Sprintf("Case %s has been withdrawn", event.CaseRef)
	default:
		return fmt.Sprintf("Case %s status changed to %s", event.CaseRef, event.NewStatus)
	}
}

func (c *CaseEventConsumer) Stop() {
	close(c.done)
	c.wg.Wait()
	log.Println("consumer: stopped")
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
