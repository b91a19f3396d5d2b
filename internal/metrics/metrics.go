package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ArrayAllocatedBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tinytensor_array_allocated_bytes",
		Help: "Bytes currently held by live array buffers",
	})

	ArraysLive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tinytensor_arrays_live",
		Help: "Number of arrays that have been created and not yet released",
	})

	ArraysCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tinytensor_arrays_created_total",
		Help: "Total number of arrays created, by representation",
	}, []string{"representation"})

	Operations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tinytensor_operations_total",
		Help: "Total number of completed array operations",
	}, []string{"operation"})

	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tinytensor_operation_duration_seconds",
		Help:    "Histogram of array operation execution times",
		Buckets: []float64{1e-7, 1e-6, 1e-5, 1e-4, 1e-3, 1e-2, 1e-1, 1},
	}, []string{"operation"})

	QuantizedElements = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tinytensor_quantized_elements_total",
		Help: "Total number of float32 elements quantized to int8",
	})

	QuantizationClamped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tinytensor_quantization_clamped_total",
		Help: "Total number of quantized elements clamped to the int8 range",
	}, []string{"bound"})

	ValidationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tinytensor_validation_errors_total",
		Help: "Total number of rejected array operations",
	}, []string{"operation", "error_type"})
)

func RecordAllocation(liveBytes int64, liveArrays int64) {
	ArrayAllocatedBytes.Set(float64(liveBytes))
	ArraysLive.Set(float64(liveArrays))
}

func RecordArrayCreated(representation string) {
	ArraysCreated.WithLabelValues(representation).Inc()
}

func RecordOperation(operation string, duration time.Duration) {
	Operations.WithLabelValues(operation).Inc()
	OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordQuantization records one quantize pass: total elements and how many hit each bound.
func RecordQuantization(elements, clampedLow, clampedHigh int) {
	QuantizedElements.Add(float64(elements))
	if clampedLow > 0 {
		QuantizationClamped.WithLabelValues("low").Add(float64(clampedLow))
	}
	if clampedHigh > 0 {
		QuantizationClamped.WithLabelValues("high").Add(float64(clampedHigh))
	}
}

func RecordValidationError(operation, errorType string) {
	ValidationErrors.WithLabelValues(operation, errorType).Inc()
}
