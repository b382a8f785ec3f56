// Package metrics exposes Prometheus counters for the progression workflow
// and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what services and middleware report to.
type Recorder interface {
	RecordCompletion(gameID uint, xpAwarded int)
	RecordRejection(reason string)
	RecordLevelUp(level int)
	RecordRegistration()
	RecordRequest(method, route string, status int, latency time.Duration)
}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	completions   *prometheus.CounterVec
	xpAwarded     prometheus.Counter
	rejections    *prometheus.CounterVec
	levelUps      prometheus.Counter
	highestLevel  prometheus.Gauge
	registrations prometheus.Counter
	requests      *prometheus.HistogramVec

	maxLevel atomic.Int64
}

// NewCollector registers every metric on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "questlog_quest_completions_total",
			Help: "Quest completions committed, by game.",
		}, []string{"game_id"}),
		xpAwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "questlog_xp_awarded_total",
			Help: "XP granted by committed quest completions.",
		}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "questlog_quest_completion_rejections_total",
			Help: "Quest completions refused, by reason.",
		}, []string{"reason"}),
		levelUps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "questlog_level_ups_total",
			Help: "Completions that raised a user's level.",
		}),
		highestLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "questlog_highest_level_reached",
			Help: "Highest level reached by any user since start.",
		}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "questlog_registrations_total",
			Help: "Accounts registered.",
		}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "questlog_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		c.completions,
		c.xpAwarded,
		c.rejections,
		c.levelUps,
		c.highestLevel,
		c.registrations,
		c.requests,
	)
	return c
}

func (c *Collector) RecordCompletion(gameID uint, xpAwarded int) {
	c.completions.WithLabelValues(strconv.FormatUint(uint64(gameID), 10)).Inc()
	c.xpAwarded.Add(float64(xpAwarded))
}

func (c *Collector) RecordRejection(reason string) {
	c.rejections.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordLevelUp(level int) {
	c.levelUps.Inc()
	for {
		cur := c.maxLevel.Load()
		if int64(level) <= cur {
			return
		}
		if c.maxLevel.CompareAndSwap(cur, int64(level)) {
			c.highestLevel.Set(float64(level))
			return
		}
	}
}

func (c *Collector) RecordRegistration() {
	c.registrations.Inc()
}

func (c *Collector) RecordRequest(method, route string, status int, latency time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(latency.Seconds())
}

// Handler returns the scrape endpoint for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordCompletion(uint, int)                       {}
func (Nop) RecordRejection(string)                           {}
func (Nop) RecordLevelUp(int)                                {}
func (Nop) RecordRegistration()                              {}
func (Nop) RecordRequest(string, string, int, time.Duration) {}
