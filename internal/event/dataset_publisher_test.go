package event

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// PUBLISHER COUNTERS
// ============================================================================

func TestPublisherStats_CountUnderConcurrentRecording(t *testing.T) {
	publisher := NewDatasetPublisher(nil)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			publisher.recordSuccess()
		}()
		go func() {
			defer wg.Done()
			publisher.recordFailure()
		}()
	}
	wg.Wait()

	stats := publisher.Stats()
	assert.Equal(t, int64(50), stats.MessagesPublished)
	assert.Equal(t, int64(50), stats.MessagesFailed)
	assert.False(t, stats.LastPublishTime.IsZero())
}

func TestPublisherStats_ZeroBeforeFirstPublish(t *testing.T) {
	publisher := NewDatasetPublisher(nil)

	stats := publisher.Stats()
	assert.Zero(t, stats.MessagesPublished)
	assert.Zero(t, stats.MessagesFailed)
	assert.Equal(t, int64(0), stats.LastPublishTime.UnixNano())
}
