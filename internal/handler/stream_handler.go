package handler

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-scheduling-api/pkg/realtime"
	"github.com/noah-isme/sma-scheduling-api/pkg/response"
)

const streamBuffer = 32

type availabilitySubscriber interface {
	Subscribe(teacherID string, onUpdate realtime.Handler) (func(), error)
}

// StreamHandler pushes availability and enrollment changes as server-sent events.
type StreamHandler struct {
	channels  availabilitySubscriber
	heartbeat time.Duration
	logger    *zap.Logger
}

// NewStreamHandler constructs the handler. heartbeat defaults to 25s.
func NewStreamHandler(channels availabilitySubscriber, heartbeat time.Duration, logger *zap.Logger) *StreamHandler {
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreamHandler{channels: channels, heartbeat: heartbeat, logger: logger}
}

// Stream godoc
// @Summary Subscribe to a teacher's availability changes (server-sent events)
// @Tags Availability
// @Produce text/event-stream
// @Param id path string true "Teacher ID"
// @Success 200 {string} string "event stream"
// @Router /teachers/{id}/availability/stream [get]
func (h *StreamHandler) Stream(c *gin.Context) {
	id, ok := teacherID(c)
	if !ok {
		return
	}

	events := make(chan realtime.Event, streamBuffer)
	unsubscribe, err := h.channels.Subscribe(id, func(e realtime.Event) {
		select {
		case events <- e:
		default:
			h.logger.Warn("stream consumer lagging, event dropped", zap.String("teacher_id", id), zap.String("event_id", e.ID))
		}
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("ready", gin.H{"teacher_id": id, "channel": realtime.ChannelName(id)})

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	done := c.Request.Context().Done()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-done:
			return false
		case e := <-events:
			c.SSEvent(e.Table, e)
			return true
		case t := <-ticker.C:
			c.SSEvent("heartbeat", gin.H{"at": t.UTC()})
			return true
		}
	})
	h.logger.Debug("stream closed", zap.String("teacher_id", id))
}
