package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware abre um span de servidor por requisição
type TracingMiddleware struct {
	tracer trace.Tracer
}

// NewTracingMiddleware cria um novo middleware de rastreamento
func NewTracingMiddleware(serviceName string) *TracingMiddleware {
	return &TracingMiddleware{tracer: otel.Tracer(serviceName)}
}

// Middleware inicia um span para cada requisição HTTP
func (m *TracingMiddleware) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		ctx, span := m.tracer.Start(ctx, "HTTP "+c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.route", route),
				attribute.String("http.client_ip", c.ClientIP()),
				attribute.String("http.user_agent", c.Request.UserAgent()),
			),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if actor, ok := ActorFrom(c); ok {
			span.SetAttributes(
				attribute.String("enduser.id", actor.ID),
				attribute.String("enduser.role", string(actor.Role)),
			)
		}
		if status >= 500 {
			span.SetStatus(codes.Error, "server error")
		}
	}
}
