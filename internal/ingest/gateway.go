// Package ingest consumes sensor messages from the MQTT bus and feeds them
// into the pipeline: parse, validate, persist, then fan out.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tinoq/sense-backend/internal/metrics"
	"github.com/tinoq/sense-backend/internal/telemetry"
)

var validate = validator.New()

// Broadcaster is the fan-out side of the pipeline; satisfied by hub.Hub.
type Broadcaster interface {
	Broadcast(r telemetry.Reading)
}

// sensorPayload is the wire format published by sensor nodes. Pointer fields
// distinguish a missing key from a zero value.
type sensorPayload struct {
	DeviceID    *string  `json:"device_id" validate:"required"`
	Temperature *float64 `json:"temperature" validate:"required"`
	Humidity    *float64 `json:"humidity" validate:"required"`
}

// Gateway turns bus messages into stored readings. One Gateway is driven by
// a single consumer, so messages are handled strictly in arrival order.
type Gateway struct {
	store telemetry.Store
	hub   Broadcaster

	// now is swappable for tests.
	now func() time.Time
}

// NewGateway creates a Gateway.
func NewGateway(store telemetry.Store, hub Broadcaster) *Gateway {
	return &Gateway{
		store: store,
		hub:   hub,
		now:   time.Now,
	}
}

// HandleMessage processes one bus message. Malformed messages are logged,
// counted and dropped; they never stop the consumer. A store failure is
// returned to the caller, which also must not stop consuming: the reading is
// lost and no fan-out happens. Persistence always completes before fan-out,
// and a fan-out problem can never undo the persisted write.
func (g *Gateway) HandleMessage(ctx context.Context, payload []byte) error {
	var p sensorPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		metrics.IngestDropped.Inc()
		log.Printf("ingest: dropping malformed payload: %v", err)
		return nil
	}
	if err := validate.Struct(p); err != nil {
		metrics.IngestDropped.Inc()
		log.Printf("ingest: dropping incomplete payload: %v", err)
		return nil
	}
	if *p.DeviceID == "" {
		metrics.IngestDropped.Inc()
		log.Printf("ingest: dropping payload with empty device_id")
		return nil
	}

	// Readings are timestamped at ingestion; sensor-reported time is
	// ignored.
	r := telemetry.Reading{
		DeviceID:    *p.DeviceID,
		Temperature: *p.Temperature,
		Humidity:    *p.Humidity,
		Timestamp:   g.now().UTC(),
	}

	if err := g.store.Append(ctx, r); err != nil {
		metrics.StoreAppendErrors.Inc()
		return fmt.Errorf("append reading from %s: %w", r.DeviceID, err)
	}
	metrics.ReadingsIngested.Inc()

	g.hub.Broadcast(r)
	return nil
}
