package observability

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/danmuck/sbewire/internal/protocol"
	"github.com/danmuck/sbewire/internal/protocol/frame"
	"github.com/danmuck/sbewire/internal/protocol/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Directions used as metric labels.
const (
	DirectionEncode = "encode"
	DirectionDecode = "decode"
)

var (
	registerOnce sync.Once

	codecMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sbewire",
			Subsystem: "codec",
			Name:      "messages_total",
			Help:      "Messages encoded or decoded.",
		},
		[]string{"template", "direction"},
	)
	codecBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sbewire",
			Subsystem: "codec",
			Name:      "bytes_total",
			Help:      "Encoded message bytes produced or consumed.",
		},
		[]string{"template", "direction"},
	)
	codecErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sbewire",
			Subsystem: "codec",
			Name:      "errors_total",
			Help:      "Codec failures by kind.",
		},
		[]string{"direction", "kind"},
	)
	batchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sbewire",
			Subsystem: "batch",
			Name:      "duration_seconds",
			Help:      "Batch encode/decode duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"direction"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sbewire",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sbewire",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(codecMessages, codecBytes, codecErrors, batchDuration, httpRequests, httpDuration)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	RegisterMetrics()
	return promhttp.Handler()
}

func RecordMessage(templateID uint16, direction string, size int) {
	RegisterMetrics()
	label := TemplateLabel(templateID)
	codecMessages.WithLabelValues(label, direction).Inc()
	codecBytes.WithLabelValues(label, direction).Add(float64(size))
}

func RecordError(direction string, err error) {
	RegisterMetrics()
	codecErrors.WithLabelValues(direction, ErrorKind(err)).Inc()
}

func RecordBatch(direction string, duration time.Duration) {
	RegisterMetrics()
	batchDuration.WithLabelValues(direction).Observe(duration.Seconds())
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

// TemplateLabel names a template for metric labels.
func TemplateLabel(templateID uint16) string {
	if t, ok := schema.Lookup(templateID); ok {
		return t.Name
	}
	return "unknown"
}

// ErrorKind maps codec errors onto a small fixed label set.
func ErrorKind(err error) string {
	var verr schema.ValidationError
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, protocol.ErrIndexOutOfRange), errors.Is(err, protocol.ErrLengthOutOfRange):
		return "range"
	case errors.Is(err, protocol.ErrInvalidUTF8):
		return "encoding"
	case errors.Is(err, protocol.ErrBufferFault):
		return "buffer"
	case errors.Is(err, protocol.ErrOrderViolation):
		return "order"
	case errors.As(err, &verr):
		return "schema"
	case errors.Is(err, frame.ErrShortPrefix), errors.Is(err, frame.ErrBodyTooLarge),
		errors.Is(err, frame.ErrUnknownFlags), errors.Is(err, frame.ErrCorruptBody):
		return "frame"
	default:
		return "other"
	}
}
