package observer

import (
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware instruments an Agent Protocol handler: one span plus counter
// and duration samples per func query. The metadata handshake (GET /) is
// passed through uninstrumented.
func Middleware(inst *Instruments, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			next.ServeHTTP(w, r)
			return
		}

		funcName := strings.Trim(r.URL.Path, "/")
		attrs := []attribute.KeyValue{attribute.String("agent.func", funcName)}

		ctx, span := inst.Tracer.Start(r.Context(), "agent.query",
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attrs...))
		defer span.End()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(ctx))
		elapsed := time.Since(start)

		attrs = append(attrs, attribute.Int("http.status_code", rec.status))
		inst.Queries.Add(ctx, 1, metric.WithAttributes(attrs...))
		inst.QueryDuration.Record(ctx, float64(elapsed.Milliseconds()), metric.WithAttributes(attrs...))

		if rec.status >= 400 {
			inst.QueryFailures.Add(ctx, 1, metric.WithAttributes(attrs...))
			span.SetStatus(codes.Error, http.StatusText(rec.status))
		}
		span.SetAttributes(attribute.Int("http.status_code", rec.status))
	})
}
