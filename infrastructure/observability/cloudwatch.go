package observability

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"

	"github.com/engmung/portfolio-Nat/application/ports"
)

// PutMetricDataAPI is the slice of the CloudWatch client the sink uses
type PutMetricDataAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

var _ ports.Metrics = (*CloudWatchMetrics)(nil)

// maxDatums is how many data points one PutMetricData call carries
const maxDatums = 20

// CloudWatchMetrics buffers measurements and ships them to CloudWatch in batches.
// Label values become a single "Label" dimension.
type CloudWatchMetrics struct {
	namespace string
	client    PutMetricDataAPI
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.Mutex
	pending []types.MetricDatum
}

// NewCloudWatchMetrics creates a sink. A nil client discards everything.
func NewCloudWatchMetrics(namespace string, client PutMetricDataAPI, logger *zap.Logger) *CloudWatchMetrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CloudWatchMetrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
		now:       time.Now,
	}
}

func (m *CloudWatchMetrics) record(name string, value float64, unit types.StandardUnit, labels []string) {
	if m.client == nil {
		return
	}

	datum := types.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(m.now()),
	}
	if len(labels) > 0 && labels[0] != "" {
		datum.Dimensions = []types.Dimension{{Name: aws.String("Label"), Value: aws.String(labels[0])}}
	}

	m.mu.Lock()
	m.pending = append(m.pending, datum)
	full := len(m.pending) >= maxDatums
	m.mu.Unlock()

	if full {
		m.Flush(context.Background())
	}
}

// Increment records a count of one
func (m *CloudWatchMetrics) Increment(name string, labels ...string) {
	m.record(name, 1, types.StandardUnitCount, labels)
}

// SetGauge records an absolute value
func (m *CloudWatchMetrics) SetGauge(name string, value float64, labels ...string) {
	m.record(name, value, types.StandardUnitNone, labels)
}

// StartTimer records the elapsed milliseconds when stopped
func (m *CloudWatchMetrics) StartTimer(name string, labels ...string) ports.Timer {
	return &cwTimer{sink: m, name: name, labels: labels, start: m.now()}
}

// RecordCommandExecution records latency and outcome for one command
func (m *CloudWatchMetrics) RecordCommandExecution(commandName string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.record("CommandExecution", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, []string{commandName + ":" + status})
	m.record("CommandCount", 1, types.StandardUnitCount, []string{commandName + ":" + status})
}

// Flush sends everything buffered so far
func (m *CloudWatchMetrics) Flush(ctx context.Context) {
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()

	for len(pending) > 0 {
		n := min(len(pending), maxDatums)
		input := &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(m.namespace),
			MetricData: pending[:n],
		}
		if _, err := m.client.PutMetricData(ctx, input); err != nil {
			// metrics never fail the operation that produced them
			m.logger.Warn("Failed to send metrics", zap.Error(err), zap.Int("datums", n))
		}
		pending = pending[n:]
	}
}

// Run flushes every interval until ctx is done, then flushes once more
func (m *CloudWatchMetrics) Run(ctx context.Context, interval time.Duration) error {
	if m.client == nil {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			m.Flush(flushCtx)
			cancel()
			return nil
		case <-ticker.C:
			m.Flush(ctx)
		}
	}
}

type cwTimer struct {
	sink   *CloudWatchMetrics
	name   string
	labels []string
	start  time.Time
}

func (t *cwTimer) Stop() {
	elapsed := t.sink.now().Sub(t.start)
	t.sink.record(t.name, float64(elapsed.Milliseconds()), types.StandardUnitMilliseconds, t.labels)
}
