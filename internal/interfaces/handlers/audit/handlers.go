package audit

import (
	"bufio"
	"context"
	"fmt"
	"time"

	auditsvc "propertyops-backend/internal/application/audit"
	"propertyops-backend/internal/domain"
	"propertyops-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const (
	streamBatch          = 100
	streamPoll           = 5 * time.Second
	defaultStreamSeconds = 55
	maxStreamSeconds     = 300
	retryMillis          = 3000
)

type Handlers struct {
	Service *auditsvc.Service
}

// Logs GET /api/v1/audit/logs?scope=&status=&correlation_id=&limit=
func (h *Handlers) Logs(c *fiber.Ctx) error {
	status := c.Query("status")
	if status != "" && status != domain.AuditSuccess && status != domain.AuditError {
		return response.Error(c, "status must be success or error", fiber.StatusBadRequest, nil)
	}
	rows, err := h.Service.List(c.UserContext(), auditsvc.ListFilter{
		Scope:         c.Query("scope"),
		Status:        status,
		CorrelationID: c.Query("correlation_id"),
		Limit:         c.QueryInt("limit"),
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Audit logs fetched successfully", rows, fiber.Map{"count": len(rows)})
}

// Stream GET /api/v1/audit/stream
// Server-sent events of committed audit rows. Resumes after Last-Event-ID
// (or ?after=); without a cursor it starts at the current tail. The stream
// closes after ?timeout seconds and the client reconnects with its cursor.
func (h *Handlers) Stream(c *fiber.Ctx) error {
	ctx := c.UserContext()
	after := c.Get("Last-Event-ID")
	if after == "" {
		after = c.Query("after")
	}
	if after == "" {
		latest, err := h.Service.Feed.Latest(ctx, 1)
		if err != nil {
			return response.Error(c, "Audit stream unavailable", fiber.StatusServiceUnavailable, fiber.Map{"retryable": true})
		}
		after = "0"
		if len(latest) > 0 {
			after = latest[0].ID
		}
	}
	secs := c.QueryInt("timeout", defaultStreamSeconds)
	if secs <= 0 || secs > maxStreamSeconds {
		secs = defaultStreamSeconds
	}
	deadline := time.Now().Add(time.Duration(secs) * time.Second)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	svc := h.Service
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		streamAudit(ctx, svc, w, after, deadline)
	})
	return nil
}

func streamAudit(ctx context.Context, svc *auditsvc.Service, w *bufio.Writer, cursor string, deadline time.Time) {
	fmt.Fprintf(w, "retry: %d\n\n", retryMillis)
	if w.Flush() != nil {
		return
	}
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return
		}
		block := streamPoll
		if remaining < block {
			block = remaining
		}
		msgs, err := svc.Tail(ctx, cursor, streamBatch, block)
		if err != nil {
			log.Warn().Err(err).Str("cursor", cursor).Msg("audit stream read failed")
			fmt.Fprint(w, "event: error\ndata: {\"retryable\":true}\n\n")
			_ = w.Flush()
			return
		}
		if len(msgs) == 0 {
			fmt.Fprint(w, ": keepalive\n\n")
		}
		for _, m := range msgs {
			fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", m.ID, m.Type, m.Payload)
			cursor = m.ID
		}
		if w.Flush() != nil {
			return
		}
	}
}
