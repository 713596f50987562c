package application

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/BitForged/Compass/internal/domain"
	"github.com/BitForged/Compass/internal/ports"
	"github.com/google/uuid"
)

const DefaultAlertTimeout = 2500 * time.Millisecond

// AlertQueue shows one notification at a time. Notifications queue up in the
// order they were added; the active one expires after a fixed timeout or when
// dismissed, and the next queued one takes its place.
type AlertQueue struct {
	clock   ports.Clock
	timeout time.Duration
	log     *slog.Logger

	mu          sync.Mutex
	active      *domain.Notification
	queue       []domain.Notification
	timer       ports.Timer
	generation  uint64
	subscribers []func(domain.Notification)
}

var _ ports.Notifier = (*AlertQueue)(nil)

func NewAlertQueue(clock ports.Clock, timeout time.Duration, log *slog.Logger) *AlertQueue {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if timeout <= 0 {
		timeout = DefaultAlertTimeout
	}

	return &AlertQueue{clock: clock, timeout: timeout, log: orDiscard(log)}
}

// Subscribe registers fn to be called each time a notification becomes active.
func (q *AlertQueue) Subscribe(fn func(domain.Notification)) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.subscribers = append(q.subscribers, fn)
}

func (q *AlertQueue) Add(message string, severity domain.Severity) domain.Notification {
	if severity == "" {
		severity = domain.SeverityInfo
	}
	n := domain.Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Severity:  severity,
		CreatedAt: q.clock.Now(),
	}
	q.log.Debug("alert added", "id", n.ID, "severity", string(severity), "message", message)

	q.mu.Lock()
	if q.active != nil {
		q.queue = append(q.queue, n)
		q.mu.Unlock()
		return n
	}
	notify := q.activateLocked(n)
	q.mu.Unlock()

	notify()
	return n
}

// Remove dismisses the active notification early and promotes the next one.
func (q *AlertQueue) Remove() {
	q.mu.Lock()
	if q.active == nil {
		q.mu.Unlock()
		return
	}
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	notify := q.advanceLocked()
	q.mu.Unlock()

	notify()
}

// First returns the active notification.
func (q *AlertQueue) First() (domain.Notification, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.active == nil {
		return domain.Notification{}, false
	}
	return *q.active, true
}

// Pending returns the active notification followed by the queued ones.
func (q *AlertQueue) Pending() []domain.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	pending := make([]domain.Notification, 0, len(q.queue)+1)
	if q.active != nil {
		pending = append(pending, *q.active)
	}
	return append(pending, q.queue...)
}

// Len counts active and queued notifications.
func (q *AlertQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.active == nil {
		return len(q.queue)
	}
	return len(q.queue) + 1
}

func (q *AlertQueue) expire(generation uint64) {
	q.mu.Lock()
	if generation != q.generation || q.active == nil {
		q.mu.Unlock()
		return
	}
	q.timer = nil
	notify := q.advanceLocked()
	q.mu.Unlock()

	notify()
}

func (q *AlertQueue) advanceLocked() func() {
	q.active = nil
	q.generation++
	if len(q.queue) == 0 {
		return func() {}
	}

	next := q.queue[0]
	q.queue[0] = domain.Notification{}
	q.queue = q.queue[1:]
	return q.activateLocked(next)
}

func (q *AlertQueue) activateLocked(n domain.Notification) func() {
	q.generation++
	generation := q.generation
	q.active = &n
	q.timer = q.clock.AfterFunc(q.timeout, func() { q.expire(generation) })

	subscribers := slices.Clone(q.subscribers)
	return func() {
		for _, fn := range subscribers {
			fn(n)
		}
	}
}

func orDiscard(log *slog.Logger) *slog.Logger {
	if log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return log
}
