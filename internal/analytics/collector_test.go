package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrackBuffersWithoutBlocking(t *testing.T) {
	c := NewCollector(nil, 100, time.Minute)

	for i := 0; i < 10; i++ {
		c.Track(QueryEvent{Query: "energy", Hits: 2, Timestamp: time.Now().UTC()})
	}
	assert.Equal(t, 10, c.BufferLen())
}

func TestNewCollectorDefaults(t *testing.T) {
	c := NewCollector(nil, 0, 0)
	assert.Equal(t, 100, c.batchSize)
	assert.Equal(t, 5*time.Second, c.flushInterval)
}
