package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// Metrics publishes application metrics to CloudWatch. A nil client turns
// every method into a no-op, which keeps local development quiet.
type Metrics struct {
	namespace string
	client    *cloudwatch.Client
	logger    *zap.Logger
}

// NewMetrics creates a new metrics instance
func NewMetrics(namespace string, client *cloudwatch.Client, logger *zap.Logger) *Metrics {
	return &Metrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
	}
}

// IncrementCounter records a single occurrence of the named event
func (m *Metrics) IncrementCounter(name string) {
	m.put(types.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(1),
		Unit:       types.StandardUnitCount,
		Timestamp:  aws.Time(time.Now()),
	})
}

// StartTimer begins a latency measurement for the named operation.
// Call Stop on the returned timer to record it.
func (m *Metrics) StartTimer(name string) Timer {
	return &cloudWatchTimer{
		metrics: m,
		name:    name,
		started: time.Now(),
	}
}

// RecordCascadeFanout records how many owner versions a single edit created
func (m *Metrics) RecordCascadeFanout(created int) {
	m.put(types.MetricDatum{
		MetricName: aws.String("CascadeFanout"),
		Value:      aws.Float64(float64(created)),
		Unit:       types.StandardUnitCount,
		Timestamp:  aws.Time(time.Now()),
	})
}

// RecordRetryExhaustion records an optimistic-concurrency retry budget running out
func (m *Metrics) RecordRetryExhaustion(operation string) {
	m.put(types.MetricDatum{
		MetricName: aws.String("RetryExhaustion"),
		Dimensions: []types.Dimension{
			{Name: aws.String("Operation"), Value: aws.String(operation)},
		},
		Value:     aws.Float64(1),
		Unit:      types.StandardUnitCount,
		Timestamp: aws.Time(time.Now()),
	})
}

// put ships one datum asynchronously. Metric delivery never blocks or fails
// the operation being measured.
func (m *Metrics) put(datum types.MetricDatum) {
	if m.client == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(m.namespace),
			MetricData: []types.MetricDatum{datum},
		})
		if err != nil && m.logger != nil {
			m.logger.Debug("Failed to publish metric",
				zap.String("metric", aws.ToString(datum.MetricName)),
				zap.Error(err),
			)
		}
	}()
}

// Timer measures the duration of a single operation
type Timer interface {
	Stop()
}

type cloudWatchTimer struct {
	metrics *Metrics
	name    string
	started time.Time
}

// Stop records the elapsed time since the timer was started
func (t *cloudWatchTimer) Stop() {
	t.metrics.put(types.MetricDatum{
		MetricName: aws.String(t.name + ".latency"),
		Value:      aws.Float64(float64(time.Since(t.started).Milliseconds())),
		Unit:       types.StandardUnitMilliseconds,
		Timestamp:  aws.Time(time.Now()),
	})
}
