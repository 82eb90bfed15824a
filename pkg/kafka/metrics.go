package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "knowmoreqr"

var consumerLabels = []string{"topic", "consumer_group"}

var (
	consumerMessagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "kafka_consumer",
		Name:      "messages_processed_total",
		Help:      "Messages handled successfully.",
	}, consumerLabels)

	consumerMessagesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "kafka_consumer",
		Name:      "messages_failed_total",
		Help:      "Messages that exhausted their retries.",
	}, consumerLabels)

	consumerProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "kafka_consumer",
		Name:      "processing_duration_seconds",
		Help:      "Handler time per message, retries included.",
		Buckets:   prometheus.DefBuckets,
	}, consumerLabels)

	consumerDLQPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "kafka_consumer",
		Name:      "dlq_published_total",
		Help:      "Failed messages forwarded to a dead-letter topic.",
	}, consumerLabels)

	producerMessagesPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "kafka_producer",
		Name:      "messages_published_total",
		Help:      "Events written to the broker.",
	}, []string{"topic"})

	producerPublishErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "kafka_producer",
		Name:      "publish_errors_total",
		Help:      "Failed publish attempts.",
	}, []string{"topic"})

	producerPublishDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "kafka_producer",
		Name:      "publish_duration_seconds",
		Help:      "Time spent writing one event.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"topic"})
)
