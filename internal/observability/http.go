package observability

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// WrapHandler traces inbound requests on the runtime's providers.
func (r *Runtime) WrapHandler(next http.Handler, operation string) http.Handler {
	return otelhttp.NewHandler(next, operation,
		otelhttp.WithTracerProvider(r.tracerProvider),
		otelhttp.WithMeterProvider(r.meterProvider),
		otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
			return req.Method + " " + req.URL.Path
		}),
	)
}

// WrapTransport traces outbound requests made through base.
func (r *Runtime) WrapTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return otelhttp.NewTransport(base,
		otelhttp.WithTracerProvider(r.tracerProvider),
		otelhttp.WithMeterProvider(r.meterProvider),
	)
}
