package usecase

import (
	"context"
	"io"

	"social-scheduler/pkg/metrics"
	"social-scheduler/pkg/queue"

	"github.com/prometheus/client_golang/prometheus"
)

// TaskPublisher enqueues notification tasks. *queue.Client satisfies it.
type TaskPublisher interface {
	PublishTask(ctx context.Context, task queue.Task) error
}

// MediaStore keeps uploaded media. *s3.Client satisfies it.
type MediaStore interface {
	UploadFile(ctx context.Context, key string, file io.Reader, contentType string) (string, error)
	DeleteFile(ctx context.Context, key string) error
}

type Metrics struct {
	Retries   *prometheus.CounterVec
	Publishes *prometheus.CounterVec
}

func NewMetrics(collector *metrics.Collector) *Metrics {
	return &Metrics{
		Retries:   collector.NewCounter("retries_total", "Single-platform retries by outcome", []string{"platform", "outcome"}),
		Publishes: collector.NewCounter("publishes_total", "Platform publish results by outcome", []string{"platform", "outcome"}),
	}
}

func (m *Metrics) retry(platform, outcome string) {
	if m == nil {
		return
	}
	m.Retries.WithLabelValues(platform, outcome).Inc()
}

func (m *Metrics) publish(platform, outcome string) {
	if m == nil {
		return
	}
	m.Publishes.WithLabelValues(platform, outcome).Inc()
}
