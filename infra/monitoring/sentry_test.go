package monitoring

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/compstation/config"
	"github.com/kilianp07/compstation/core/model"
	coremon "github.com/kilianp07/compstation/core/monitoring"
)

type memoryTransport struct {
	mu     sync.Mutex
	events []*sentry.Event
}

func (t *memoryTransport) Configure(sentry.ClientOptions) {}
func (t *memoryTransport) Flush(time.Duration) bool       { return true }

func (t *memoryTransport) SendEvent(e *sentry.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, e)
}

func (t *memoryTransport) sent() []*sentry.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*sentry.Event(nil), t.events...)
}

func TestNewSentryMonitor_EmptyDSN(t *testing.T) {
	m, err := NewSentryMonitor(config.SentryConfig{})
	require.NoError(t, err)
	assert.IsType(t, coremon.NopMonitor{}, m)
}

func TestSentryMonitor_CaptureException(t *testing.T) {
	tr := &memoryTransport{}
	m, err := newSentryMonitor(sentry.ClientOptions{Transport: tr})
	require.NoError(t, err)

	m.CaptureException(nil, nil)
	m.CaptureException(model.ErrRootFindDidNotConverge, map[string]string{"station": "st"})
	m.Flush(time.Second)

	events := tr.sent()
	require.Len(t, events, 1)
	assert.Equal(t, "st", events[0].Tags["station"])
	require.NotEmpty(t, events[0].Exception)
	assert.Equal(t, model.ErrRootFindDidNotConverge.Error(), events[0].Exception[len(events[0].Exception)-1].Value)
}

func TestSentryMonitor_CapturePanic(t *testing.T) {
	tr := &memoryTransport{}
	m, err := newSentryMonitor(sentry.ClientOptions{Transport: tr})
	require.NoError(t, err)

	m.CapturePanic("boom")
	m.CapturePanic(errors.New("bad"))

	events := tr.sent()
	require.Len(t, events, 2)
	assert.Equal(t, sentry.LevelFatal, events[0].Level)
	assert.Contains(t, events[0].Exception[len(events[0].Exception)-1].Value, "panic: boom")
}
