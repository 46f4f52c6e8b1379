package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/JonMunkholm/tabconvert/internal/core"
)

// Outcome attribute values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Drop reasons reported on the rows dropped counter.
const (
	ReasonMalformed = "malformed"
	ReasonEmpty     = "empty"
	ReasonDuplicate = "duplicate"
)

// Metrics records conversion outcomes. It implements core.Recorder.
type Metrics struct {
	conversions metric.Int64Counter
	rowsDropped metric.Int64Counter
	rowsWritten metric.Int64Counter
	duration    metric.Float64Histogram
	bytesOut    metric.Int64Histogram
}

var _ core.Recorder = (*Metrics)(nil)

// NewMetrics creates the conversion instruments on mp. A nil mp uses the
// global provider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(scopeName)

	conversions, err := meter.Int64Counter("conversion.requests",
		metric.WithDescription("Conversion requests by outcome"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}

	rowsDropped, err := meter.Int64Counter("conversion.rows.dropped",
		metric.WithDescription("Rows removed while reading or cleaning"),
		metric.WithUnit("{row}"))
	if err != nil {
		return nil, err
	}

	rowsWritten, err := meter.Int64Counter("conversion.rows.written",
		metric.WithDescription("Rows written to converted files"),
		metric.WithUnit("{row}"))
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram("conversion.duration",
		metric.WithDescription("Conversion duration"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	bytesOut, err := meter.Int64Histogram("conversion.output.size",
		metric.WithDescription("Size of converted files"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		conversions: conversions,
		rowsDropped: rowsDropped,
		rowsWritten: rowsWritten,
		duration:    duration,
		bytesOut:    bytesOut,
	}, nil
}

// RecordConversion implements core.Recorder.
func (m *Metrics) RecordConversion(ctx context.Context, req core.ConversionRequest, res *core.ConversionResult, elapsed time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("source", string(req.Source)),
		attribute.String("target", string(req.Target)),
	}
	if err != nil {
		attrs = append(attrs,
			attribute.String("outcome", OutcomeError),
			attribute.String("error.code", core.MapError(err).Code),
		)
	} else {
		attrs = append(attrs, attribute.String("outcome", OutcomeSuccess))
	}
	set := metric.WithAttributes(attrs...)

	m.conversions.Add(ctx, 1, set)
	m.duration.Record(ctx, float64(elapsed.Microseconds())/1000, set)

	if res == nil {
		return
	}

	m.addDropped(ctx, req, ReasonMalformed, res.Parse.MalformedRows)
	m.addDropped(ctx, req, ReasonEmpty, res.Clean.EmptyRowsDropped)
	m.addDropped(ctx, req, ReasonDuplicate, res.Clean.DuplicateRowsDropped)

	target := metric.WithAttributes(attribute.String("target", string(req.Target)))
	m.rowsWritten.Add(ctx, int64(res.Rows), target)
	m.bytesOut.Record(ctx, int64(len(res.Data)), target)
}

func (m *Metrics) addDropped(ctx context.Context, req core.ConversionRequest, reason string, n int) {
	if n == 0 {
		return
	}
	m.rowsDropped.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("source", string(req.Source)),
		attribute.String("reason", reason),
	))
}
