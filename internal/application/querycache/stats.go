package querycache

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Statistic keys
const (
	statMisses              = "misses"
	statHitsTempEmbedded    = "hits.tempCache.embedded"
	statHitsTempNonEmbedded = "hits.tempCache.nonEmbedded"
	statHitsEmbedded        = "hits.embedded"
	statHitsNonEmbedded     = "hits.nonEmbedded"
	statDeletes             = "deletes"
	statNoCache             = "noCache"
)

// Reasons a query bypassed the cache
const (
	NoCacheByDisabled = "byDisabled"
	NoCacheByLimit    = "byLimit"
	NoCacheByOption   = "byOption"
	NoCacheByMisc     = "byMisc"
)

const maxSamples = 1024

// StatsSnapshot is a point-in-time copy of the cache statistics
type StatsSnapshot struct {
	Counters       map[string]int64 `json:"counters"`
	Hits           int64            `json:"hits"`
	Misses         int64            `json:"misses"`
	HitRatio       float64          `json:"hitRatio"`
	MissRatio      float64          `json:"missRatio"`
	MedianResponse time.Duration    `json:"medianResponseTime"`
}

// Stats accumulates hit, miss, deletion and bypass counters keyed by
// dotted names, mirrored to prometheus
type Stats struct {
	mu       sync.Mutex
	counters map[string]int64
	samples  []time.Duration
	next     int

	events   *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewStats creates an empty accumulator
func NewStats() *Stats {
	return &Stats{
		counters: make(map[string]int64),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "semcache",
				Subsystem: "query_cache",
				Name:      "events_total",
				Help:      "Query cache lookups, deletions and bypasses by statistic key",
			},
			[]string{"stat"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "semcache",
				Subsystem: "query_cache",
				Name:      "miss_duration_seconds",
				Help:      "Time spent computing results on a cache miss",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
}

// Register adds the prometheus collectors to reg
func (s *Stats) Register(reg prometheus.Registerer) error {
	if err := reg.Register(s.events); err != nil {
		return err
	}
	return reg.Register(s.duration)
}

func (s *Stats) incr(key string) {
	s.mu.Lock()
	s.counters[key]++
	s.mu.Unlock()
	s.events.WithLabelValues(key).Inc()
}

func (s *Stats) miss(elapsed time.Duration) {
	s.incr(statMisses)
	s.duration.Observe(elapsed.Seconds())

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.samples) < maxSamples {
		s.samples = append(s.samples, elapsed)
		return
	}
	s.samples[s.next] = elapsed
	s.next = (s.next + 1) % maxSamples
}

func (s *Stats) transientHit(embedded bool) {
	if embedded {
		s.incr(statHitsTempEmbedded)
		return
	}
	s.incr(statHitsTempNonEmbedded)
}

func (s *Stats) durableHit(embedded bool, processing string) {
	if embedded {
		s.incr(statHitsEmbedded)
		return
	}
	if processing == "" {
		processing = "undefined"
	}
	s.incr(statHitsNonEmbedded + "." + processing)
}

func (s *Stats) noCache(reason string) {
	s.incr(statNoCache + "." + reason)
}

func (s *Stats) deleted(reason string) {
	if reason == "" {
		reason = "undefined"
	}
	s.incr(statDeletes + "." + reason)
}

// Snapshot returns the counters and derived ratios
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StatsSnapshot{Counters: make(map[string]int64, len(s.counters))}
	for k, v := range s.counters {
		snap.Counters[k] = v
		if strings.HasPrefix(k, "hits.") {
			snap.Hits += v
		}
	}
	snap.Misses = s.counters[statMisses]

	if total := snap.Hits + snap.Misses; total > 0 {
		snap.HitRatio = float64(snap.Hits) / float64(total)
	}
	snap.MissRatio = 1
	if snap.Hits > 0 {
		snap.MissRatio = 1 - snap.HitRatio
	}

	if n := len(s.samples); n > 0 {
		sorted := slices.Clone(s.samples)
		slices.Sort(sorted)
		if n%2 == 1 {
			snap.MedianResponse = sorted[n/2]
		} else {
			snap.MedianResponse = (sorted[n/2-1] + sorted[n/2]) / 2
		}
	}
	return snap
}
