package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "draco",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "draco",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "draco",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	ticketsSold = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "draco",
			Subsystem: "lottery",
			Name:      "tickets_sold_total",
			Help:      "Total number of ticket purchases.",
		},
		[]string{"type"},
	)

	ticketVolume = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "draco",
			Subsystem: "lottery",
			Name:      "ticket_volume_units",
			Help:      "Total protocol units staked on tickets.",
		},
		[]string{"type"},
	)

	prizesClaimed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "draco",
			Subsystem: "lottery",
			Name:      "prizes_claimed_total",
			Help:      "Total number of settled prize claims.",
		},
		[]string{"type"},
	)

	prizeVolume = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "draco",
			Subsystem: "lottery",
			Name:      "prize_volume_units",
			Help:      "Total protocol units paid out as prizes.",
		},
		[]string{"type"},
	)

	randomnessReveals = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "draco",
			Subsystem: "lottery",
			Name:      "randomness_reveals_total",
			Help:      "Total number of successful randomness reveals.",
		},
	)

	airdropClaims = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "draco",
			Subsystem: "airdrop",
			Name:      "claims_total",
			Help:      "Total number of airdrop claims.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		ticketsSold,
		ticketVolume,
		prizesClaimed,
		prizeVolume,
		randomnessReveals,
		airdropClaims,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordTicketPurchase records one ticket purchase and its staked amount.
func RecordTicketPurchase(lotteryType string, amount uint64) {
	ticketsSold.WithLabelValues(lotteryType).Inc()
	ticketVolume.WithLabelValues(lotteryType).Add(float64(amount))
}

// RecordPrizeClaim records one settled claim and its payout.
func RecordPrizeClaim(lotteryType string, prize uint64) {
	prizesClaimed.WithLabelValues(lotteryType).Inc()
	prizeVolume.WithLabelValues(lotteryType).Add(float64(prize))
}

// RecordRandomnessReveal records one successful reveal.
func RecordRandomnessReveal() {
	randomnessReveals.Inc()
}

// RecordAirdropClaim records one airdrop claim.
func RecordAirdropClaim() {
	airdropClaims.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func canonicalPath(raw string) string {
	if raw == "" || raw == "/" {
		return "/"
	}
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	switch parts[0] {
	case "lotteries":
		if len(parts) == 1 {
			return "/lotteries"
		}
		if len(parts) == 2 {
			return "/lotteries/:id"
		}
		return "/lotteries/:id/" + parts[2]
	case "airdrops":
		if len(parts) == 1 {
			return "/airdrops"
		}
		if len(parts) == 2 {
			return "/airdrops/:id"
		}
		return "/airdrops/:id/" + parts[2]
	default:
		return "/" + parts[0]
	}
}
