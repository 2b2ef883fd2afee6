package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-scheduling-api/pkg/realtime"
)

// streamRecorder is a ResponseRecorder that supports CloseNotify and can be read while written.
type streamRecorder struct {
	*httptest.ResponseRecorder
	mu     sync.Mutex
	closed chan bool
}

func newStreamRecorder() *streamRecorder {
	return &streamRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}
}

func (r *streamRecorder) CloseNotify() <-chan bool { return r.closed }

func (r *streamRecorder) Write(b []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Write(b)
}

func (r *streamRecorder) WriteString(s string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.WriteString(s)
}

func (r *streamRecorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ResponseRecorder.Flush()
}

func (r *streamRecorder) body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Body.String()
}

func waitForWrite(t *testing.T, rec *streamRecorder, substr string) {
	t.Helper()
	require.Eventually(t, func() bool { return strings.Contains(rec.body(), substr) }, 2*time.Second, 10*time.Millisecond)
}

func TestStreamHandlerDeliversTeacherEvents(t *testing.T) {
	bus := realtime.NewMemoryBus()
	registry := realtime.NewChannelRegistry(bus, nil)
	h := NewStreamHandler(registry, time.Hour, nil)
	r := newRouter()
	r.GET("/teachers/:id/availability/stream", h.Stream)

	ctx, cancel := context.WithCancel(context.Background())
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "/teachers/t1/availability/stream", nil)
	rec := newStreamRecorder()
	done := make(chan struct{})
	go func() {
		r.ServeHTTP(rec, req)
		close(done)
	}()

	waitForWrite(t, rec, "event:ready")
	require.Equal(t, 1, registry.SubscriberCount("t1"))

	event, err := realtime.NewEvent(realtime.TableEnrollments, realtime.OpInsert, "t1", "e1", nil)
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), event.Topic(), event))
	waitForWrite(t, rec, "event:course_enrollments")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop after the client left")
	}

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.body(), `"record_id":"e1"`)
	assert.Equal(t, 0, registry.SubscriberCount("t1"))
	assert.Equal(t, 0, registry.ActiveChannels())
}
