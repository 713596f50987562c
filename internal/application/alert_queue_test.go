package application

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/BitForged/Compass/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertQueueShowsFirstAlertUntilTimeout(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	queue := NewAlertQueue(clock, DefaultAlertTimeout, nil)

	queue.Add("A", domain.SeverityInfo)
	queue.Add("B", domain.SeverityError)

	first, ok := queue.First()
	require.True(t, ok)
	assert.Equal(t, "A", first.Message)

	clock.Advance(DefaultAlertTimeout - time.Millisecond)
	first, ok = queue.First()
	require.True(t, ok)
	assert.Equal(t, "A", first.Message)

	clock.Advance(time.Millisecond)
	first, ok = queue.First()
	require.True(t, ok)
	assert.Equal(t, "B", first.Message)
	assert.Equal(t, domain.SeverityError, first.Severity)

	clock.Advance(DefaultAlertTimeout)
	_, ok = queue.First()
	assert.False(t, ok)
}

func TestAlertQueueActivatesInCallOrder(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	queue := NewAlertQueue(clock, time.Second, nil)

	var activated []string
	queue.Subscribe(func(n domain.Notification) {
		activated = append(activated, n.Message)
	})

	want := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		msg := fmt.Sprintf("alert-%d", i)
		want = append(want, msg)
		queue.Add(msg, domain.SeverityInfo)
		assert.LessOrEqual(t, countActive(queue), 1)
	}

	for i := 0; i < 10; i++ {
		clock.Advance(time.Second)
		assert.LessOrEqual(t, countActive(queue), 1)
	}

	assert.Equal(t, want, activated)
	assert.Equal(t, 0, queue.Len())
}

func TestAlertQueueRemoveCancelsTimerAndPromotesNext(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	queue := NewAlertQueue(clock, time.Second, nil)

	queue.Add("A", domain.SeverityInfo)
	clock.Advance(900 * time.Millisecond)
	queue.Add("B", domain.SeverityWarning)

	queue.Remove()
	first, ok := queue.First()
	require.True(t, ok)
	assert.Equal(t, "B", first.Message)

	// A's timer would have fired here; B must survive until its own timeout.
	clock.Advance(200 * time.Millisecond)
	first, ok = queue.First()
	require.True(t, ok)
	assert.Equal(t, "B", first.Message)

	clock.Advance(800 * time.Millisecond)
	_, ok = queue.First()
	assert.False(t, ok)
}

func TestAlertQueueRemoveOnEmptyQueueIsNoop(t *testing.T) {
	t.Parallel()

	queue := NewAlertQueue(newFakeClock(), time.Second, nil)
	queue.Remove()

	_, ok := queue.First()
	assert.False(t, ok)
}

func TestAlertQueueDoesNotDeduplicate(t *testing.T) {
	t.Parallel()

	queue := NewAlertQueue(newFakeClock(), time.Second, nil)
	first := queue.Add("same", domain.SeverityInfo)
	second := queue.Add("same", domain.SeverityInfo)

	assert.NotEqual(t, first.ID, second.ID)
	pending := queue.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, []string{"same", "same"}, messages(pending))
}

func TestAlertQueueDefaultsSeverityAndTimeout(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	queue := NewAlertQueue(clock, 0, nil)

	n := queue.Add("hello", "")
	assert.Equal(t, domain.SeverityInfo, n.Severity)
	assert.Equal(t, clock.Now(), n.CreatedAt)

	clock.Advance(DefaultAlertTimeout)
	_, ok := queue.First()
	assert.False(t, ok)
}

func TestAlertQueueConcurrentAddsKeepSingleActive(t *testing.T) {
	t.Parallel()

	queue := NewAlertQueue(newFakeClock(), time.Second, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			queue.Add(fmt.Sprintf("alert-%d", i), domain.SeverityInfo)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, queue.Len())
	assert.Equal(t, 1, countActive(queue))
}

func countActive(queue *AlertQueue) int {
	if _, ok := queue.First(); ok {
		return 1
	}
	return 0
}

func TestAlertQueueSubscriberAddedDuringNotifyWaitsForNextAlert(t *testing.T) {
	t.Parallel()

	queue := NewAlertQueue(newFakeClock(), DefaultAlertTimeout, nil)

	var first, late []string
	queue.Subscribe(func(n domain.Notification) {
		first = append(first, n.Message)
		if n.Message == "A" {
			queue.Subscribe(func(n domain.Notification) { late = append(late, n.Message) })
		}
	})

	queue.Add("A", domain.SeverityInfo)
	assert.Empty(t, late)

	queue.Add("B", domain.SeverityInfo)
	queue.Remove()

	assert.Equal(t, []string{"A", "B"}, first)
	assert.Equal(t, []string{"B"}, late)
	assert.Equal(t, 1, queue.Len())
}
