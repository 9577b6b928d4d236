package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/fleetops/fleet-gateway/internal/database"
	"github.com/fleetops/fleet-gateway/internal/models"
)

var deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "fleet_webhook_deliveries_total",
	Help: "Webhook delivery attempts by outcome.",
}, []string{"outcome"})

// Event is one outbound webhook payload before signing.
type Event struct {
	TenantID  uuid.UUID `json:"-"`
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Dispatcher fans events out to each tenant's subscribed endpoints through a
// fixed worker pool. Publish never blocks request handling for long: when
// the queue is full the event is dropped and logged.
type Dispatcher struct {
	queue       chan Event
	client      *http.Client
	maxAttempts int
	wg          sync.WaitGroup
	cancel      context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewDispatcher creates and starts the dispatcher.
func NewDispatcher(workers, maxAttempts int, timeout time.Duration) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		queue:       make(chan Event, 256),
		client:      &http.Client{Timeout: timeout},
		maxAttempts: maxAttempts,
		cancel:      cancel,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
	return d
}

// Publish enqueues an event for delivery. Events published after Close are
// dropped.
func (d *Dispatcher) Publish(tenantID uuid.UUID, event string, data any) {
	ev := Event{TenantID: tenantID, Event: event, Timestamp: time.Now().UTC(), Data: data}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		deliveries.WithLabelValues("dropped").Inc()
		log.Warn().Str("event", event).Msg("dispatcher closed, event dropped")
		return
	}
	select {
	case d.queue <- ev:
	default:
		deliveries.WithLabelValues("dropped").Inc()
		log.Warn().Str("event", event).Msg("webhook queue full, event dropped")
	}
}

// Close stops the workers and waits for in-flight deliveries. It is safe to
// call more than once.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for ev := range d.queue {
		if ctx.Err() != nil {
			return
		}
		if err := d.deliver(ctx, ev); err != nil {
			log.Warn().Err(err).Str("event", ev.Event).Msg("webhook delivery failed")
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ev Event) error {
	var endpoints []models.WebhookEndpoint
	err := database.DB.WithContext(ctx).
		Where("tenant_id = ? AND is_active = ?", ev.TenantID, true).
		Find(&endpoints).Error
	if err != nil {
		return fmt.Errorf("failed to load webhook endpoints: %w", err)
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	for _, ep := range endpoints {
		if !ep.SubscribedTo(ev.Event) {
			continue
		}
		d.send(ctx, ep, payload)
	}
	return nil
}

func (d *Dispatcher) send(ctx context.Context, ep models.WebhookEndpoint, payload []byte) {
	signature := Sign(payload, []byte(ep.Secret))

	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(payload))
		if err != nil {
			deliveries.WithLabelValues("error").Inc()
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(SignatureHeader, signature)

		resp, err := d.client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				deliveries.WithLabelValues("success").Inc()
				return
			}
		}
		if attempt < d.maxAttempts {
			time.Sleep(time.Duration(attempt) * time.Second)
		}
	}
	deliveries.WithLabelValues("failure").Inc()
	log.Warn().Str("url", ep.URL).Msg("webhook endpoint unreachable after retries")
}
