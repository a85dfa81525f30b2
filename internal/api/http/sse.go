package httpapi

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/tinoq/sense-backend/internal/hub"
)

// keepaliveInterval paces SSE comment lines so idle connections are not
// closed by intermediaries.
const keepaliveInterval = 30 * time.Second

// handleEvents streams new readings to the client as server-sent events.
// There is no replay: the stream starts with the next ingested reading, and
// clients fetch /readings/latest separately for their initial state.
func handleEvents(h *hub.Hub) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")

		sub := h.Subscribe()
		ctx := c.Context()

		ctx.SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer h.Unsubscribe(sub)

			if err := writeEvent(w, "connected", map[string]string{"subscriberId": sub.ID()}); err != nil {
				return
			}

			keepalive := time.NewTicker(keepaliveInterval)
			defer keepalive.Stop()

			for {
				select {
				case reading := <-sub.Events():
					if err := writeEvent(w, "new-reading", reading); err != nil {
						return
					}
				case <-keepalive.C:
					if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
						return
					}
					if err := w.Flush(); err != nil {
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}))

		return nil
	}
}

func writeEvent(w *bufio.Writer, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return w.Flush()
}
