package interceptors

import (
	"context"
	"sort"
	"sync"
	"time"

	"google.golang.org/grpc"

	"letraz-jobboard/internal/logging"
)

// MetricsData holds call counters for one gRPC method
type MetricsData struct {
	Method          string        `json:"method"`
	RequestCount    int64         `json:"request_count"`
	SuccessCount    int64         `json:"success_count"`
	ErrorCount      int64         `json:"error_count"`
	TotalDuration   time.Duration `json:"total_duration"`
	AverageDuration time.Duration `json:"average_duration"`
	LastUpdated     time.Time     `json:"last_updated"`
}

// MetricsCollector collects per-method gRPC metrics
type MetricsCollector struct {
	mu      sync.Mutex
	methods map[string]*MetricsData
}

// NewMetricsCollector creates an empty collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{methods: make(map[string]*MetricsData)}
}

// RecordMetrics adds one call to method's counters
func (c *MetricsCollector) RecordMetrics(method string, duration time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.methods[method]
	if !ok {
		m = &MetricsData{Method: method}
		c.methods[method] = m
	}
	m.RequestCount++
	if err != nil {
		m.ErrorCount++
	} else {
		m.SuccessCount++
	}
	m.TotalDuration += duration
	m.AverageDuration = m.TotalDuration / time.Duration(m.RequestCount)
	m.LastUpdated = time.Now()
}

// Snapshot returns a copy of all counters sorted by method
func (c *MetricsCollector) Snapshot() []MetricsData {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]MetricsData, 0, len(c.methods))
	for _, m := range c.methods {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Method < out[j].Method })
	return out
}

// MetricsInterceptor records every unary call in c
func MetricsInterceptor(c *MetricsCollector) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		c.RecordMetrics(info.FullMethod, time.Since(start), err)
		return resp, err
	}
}

// StartMetricsReporting logs a summary every interval until ctx ends
func StartMetricsReporting(ctx context.Context, c *MetricsCollector, logger logging.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, m := range c.Snapshot() {
				logger.Info("gRPC method metrics", map[string]interface{}{
					"method":           m.Method,
					"request_count":    m.RequestCount,
					"error_count":      m.ErrorCount,
					"average_duration": m.AverageDuration.String(),
				})
			}
		}
	}
}
