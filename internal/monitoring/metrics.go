package monitoring

import (
	"context"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checkoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tickets_checkouts_total",
		Help: "Checkout sessions by outcome",
	}, []string{"status"})

	assignmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tickets_assignments_total",
		Help: "Post-payment ticket assignments by path and outcome",
	}, []string{"path", "status"})

	scansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tickets_scans_total",
		Help: "Entry scan attempts by result",
	}, []string{"result"})

	webhooksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tickets_webhooks_total",
		Help: "Payment webhook deliveries by event type and outcome",
	}, []string{"event", "status"})

	availableTickets = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tickets_available",
		Help: "Unsold tickets remaining per type",
	}, []string{"ticket_type"})
)

func TrackCheckout(status string) {
	checkoutsTotal.WithLabelValues(status).Inc()
}

func TrackAssignment(path, status string) {
	assignmentsTotal.WithLabelValues(path, status).Inc()
}

func TrackScan(result string) {
	scansTotal.WithLabelValues(result).Inc()
}

func TrackWebhook(event, status string) {
	webhooksTotal.WithLabelValues(event, status).Inc()
}

// AvailabilitySource reports unsold ticket counts keyed by ticket type.
type AvailabilitySource interface {
	AvailableByType(ctx context.Context) (map[string]int64, error)
}

// Monitor refreshes the availability gauge from the inventory on a fixed
// interval until its context is cancelled.
type Monitor struct {
	source   AvailabilitySource
	interval time.Duration
}

func NewMonitor(source AvailabilitySource, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Monitor{source: source, interval: interval}
}

func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.refresh(ctx)
		}
	}
}

func (m *Monitor) refresh(ctx context.Context) {
	counts, err := m.source.AvailableByType(ctx)
	if err != nil {
		log.Printf("monitoring: availability refresh failed: %v", err)
		return
	}
	availableTickets.Reset()
	for ticketType, n := range counts {
		availableTickets.WithLabelValues(ticketType).Set(float64(n))
	}
}
