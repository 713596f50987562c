package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/BitForged/Compass/internal/domain"
	"github.com/BitForged/Compass/internal/ports"
	"github.com/stretchr/testify/mock"
)

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// fakeClock only fires timers when Advance is called.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) ports.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTimer{clock: c, at: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		due := c.dueLocked(target)
		if due == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = due.at
		due.fired = true
		c.mu.Unlock()

		due.fn()
	}
}

func (c *fakeClock) dueLocked(target time.Time) *fakeTimer {
	pending := make([]*fakeTimer, 0, len(c.timers))
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(target) {
			pending = append(pending, t)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].at.Before(pending[j].at) })
	return pending[0]
}

type memoryStorage struct {
	mu      sync.Mutex
	items   map[string]string
	failSet map[string]error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{items: map[string]string{}, failSet: map[string]error{}}
}

func (m *memoryStorage) GetItem(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	value, ok := m.items[key]
	if !ok {
		return "", domain.ErrStorageKeyNotFound
	}
	return value, nil
}

func (m *memoryStorage) SetItem(_ context.Context, key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failSet[key]; err != nil {
		return err
	}
	m.items[key] = value
	return nil
}

func (m *memoryStorage) RemoveItem(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	return nil
}

func (m *memoryStorage) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.items[key]
	return ok
}

type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNavigator) Navigate(path string) (domain.Route, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.paths = append(n.paths, path)
	return domain.Route{Path: path}, nil
}

func (n *recordingNavigator) visited() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]string(nil), n.paths...)
}

type mockRequester struct {
	mock.Mock
}

func (m *mockRequester) Request(ctx context.Context, req ports.Request) (*ports.Response, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*ports.Response)
	return resp, args.Error(1)
}

func jsonResponse(status int, body string) *ports.Response {
	return &ports.Response{Status: status, Body: []byte(body)}
}

func mockAnyContext() any {
	return mock.MatchedBy(func(context.Context) bool { return true })
}

func severities(notifications []domain.Notification) []domain.Severity {
	result := make([]domain.Severity, 0, len(notifications))
	for _, n := range notifications {
		result = append(result, n.Severity)
	}
	return result
}

func messages(notifications []domain.Notification) []string {
	result := make([]string, 0, len(notifications))
	for _, n := range notifications {
		result = append(result, n.Message)
	}
	return result
}

var errStorageDown = errors.New("storage down")
