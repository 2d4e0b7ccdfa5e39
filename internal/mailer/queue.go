package mailer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iscore-hr/helpdesk-backend/pkg/enums"
	pkgerrors "github.com/iscore-hr/helpdesk-backend/pkg/errors"
	"github.com/iscore-hr/helpdesk-backend/pkg/logger"
	"github.com/iscore-hr/helpdesk-backend/pkg/metrics"
	"github.com/iscore-hr/helpdesk-backend/pkg/sendgrid"
)

const (
	defaultQueueMaxRetries   = 3
	defaultQueuePollInterval = 5 * time.Second
)

// deliverer is the single-attempt send surface the queue dispatches through.
type deliverer interface {
	DeliverOnce(ctx context.Context, req DeliverRequest) error
}

// Item is one queued notification. Higher Priority values are dispatched
// first; equal priorities keep their enqueue order.
type Item struct {
	ID         uuid.UUID
	Template   enums.EmailTemplate
	To         sendgrid.Address
	UserID     *uuid.UUID
	RelatedID  *uuid.UUID
	Priority   int
	Data       TemplateData
	RetryCount int
	EnqueuedAt time.Time
}

// Status is the queue snapshot exposed on the monitoring endpoint.
type Status struct {
	Length     int  `json:"queue_length"`
	Processing bool `json:"is_processing"`
}

// QueueParams bundles the dependencies for the notification queue.
type QueueParams struct {
	Deliver      deliverer
	Logger       *logger.Logger
	Metrics      *metrics.MailerMetrics
	MaxRetries   int
	PollInterval time.Duration
}

// Queue is the in-memory priority queue feeding the delivery adapter. A single
// consumer goroutine drains it, so provider calls never run concurrently on
// this path.
type Queue struct {
	deliver      deliverer
	logg         *logger.Logger
	metrics      *metrics.MailerMetrics
	maxRetries   int
	pollInterval time.Duration

	mu         sync.Mutex
	items      []*Item
	processing bool

	wake   chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

// NewQueue builds a stopped queue; call Start to begin draining.
func NewQueue(params QueueParams) (*Queue, error) {
	if params.Deliver == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "queue deliverer required")
	}
	maxRetries := params.MaxRetries
	if maxRetries < 1 {
		maxRetries = defaultQueueMaxRetries
	}
	pollInterval := params.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultQueuePollInterval
	}
	return &Queue{
		deliver:      params.Deliver,
		logg:         params.Logger,
		metrics:      params.Metrics,
		maxRetries:   maxRetries,
		pollInterval: pollInterval,
		wake:         make(chan struct{}, 1),
	}, nil
}

// Enqueue validates the payload and inserts the item by priority. Malformed
// payloads are rejected here so the consumer never burns retries on them.
func (q *Queue) Enqueue(item Item) error {
	if err := ValidatePayload(item.Template, item.Data); err != nil {
		return err
	}
	if item.To.Email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient email required")
	}

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.EnqueuedAt.IsZero() {
		item.EnqueuedAt = time.Now()
	}

	q.mu.Lock()
	q.insert(&item)
	depth := len(q.items)
	q.mu.Unlock()
	q.metrics.SetQueueDepth(depth)

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

// insert keeps the slice ordered by descending priority, FIFO within a
// priority. Callers hold q.mu.
func (q *Queue) insert(item *Item) {
	pos := len(q.items)
	for i, queued := range q.items {
		if queued.Priority < item.Priority {
			pos = i
			break
		}
	}
	q.items = append(q.items, nil)
	copy(q.items[pos+1:], q.items[pos:])
	q.items[pos] = item
}

// Start launches the consumer goroutine. The queue drains on every enqueue
// and on a poll tick that catches re-queued retries.
func (q *Queue) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel
	q.done = make(chan struct{})

	go func() {
		defer close(q.done)
		ticker := time.NewTicker(q.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-q.wake:
			case <-ticker.C:
			}
			q.drain(runCtx)
		}
	}()
}

// Stop cancels the consumer and waits for the in-flight item to finish.
func (q *Queue) Stop() {
	if q.cancel == nil {
		return
	}
	q.cancel()
	<-q.done
	q.cancel = nil
}

// Status reports the current queue snapshot. A nil queue reports an empty,
// idle snapshot instead of dereferencing its mutex.
func (q *Queue) Status() Status {
	if q == nil {
		return Status{}
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return Status{Length: len(q.items), Processing: q.processing}
}

// drain dispatches queued items until the queue is empty or the context ends.
func (q *Queue) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		q.mu.Lock()
		if len(q.items) == 0 {
			q.processing = false
			q.mu.Unlock()
			q.metrics.SetQueueDepth(0)
			return
		}
		item := q.items[0]
		q.items = q.items[1:]
		q.processing = true
		depth := len(q.items)
		q.mu.Unlock()
		q.metrics.SetQueueDepth(depth)

		// Cancellation gates dequeuing only. The dequeued send and its log
		// append always run to completion, including during shutdown.
		q.process(context.WithoutCancel(ctx), item)
	}
}

func (q *Queue) process(ctx context.Context, item *Item) {
	logCtx := ctx
	if q.logg != nil {
		logCtx = q.logg.WithFields(ctx, map[string]any{
			"template":    item.Template.String(),
			"email":       item.To.Email,
			"priority":    item.Priority,
			"retry_count": item.RetryCount,
		})
	}

	if !item.Template.IsValid() {
		if q.logg != nil {
			q.logg.Warn(logCtx, "unknown notification type in queue")
		}
		q.metrics.IncDropped(item.Template.String())
		return
	}

	err := q.deliver.DeliverOnce(ctx, DeliverRequest{
		Template:  item.Template,
		To:        item.To,
		UserID:    item.UserID,
		RelatedID: item.RelatedID,
		Data:      item.Data,
	})
	if err == nil {
		return
	}

	// A validation error will fail the same way every time.
	if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeValidation {
		if q.logg != nil {
			q.logg.Warn(logCtx, "notification payload rejected, dropping")
		}
		q.metrics.IncDropped(item.Template.String())
		return
	}

	item.RetryCount++
	if item.RetryCount >= q.maxRetries {
		if q.logg != nil {
			q.logg.Error(logCtx, "notification dropped after retry limit", err)
		}
		q.metrics.IncDropped(item.Template.String())
		return
	}

	// Each failed attempt decays the priority so a flapping notification
	// stops starving the rest of the queue.
	if item.Priority > 0 {
		item.Priority--
	}

	q.mu.Lock()
	q.insert(item)
	depth := len(q.items)
	q.mu.Unlock()
	q.metrics.SetQueueDepth(depth)
}
