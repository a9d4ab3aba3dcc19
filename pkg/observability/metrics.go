package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/prperemyshlev/shop-identity"

// PrometheusHandler returns a Gin handler for Prometheus metrics
func PrometheusHandler(handler http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if handler != nil {
			handler.ServeHTTP(c.Writer, c.Request)
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "metrics handler not initialized",
			})
		}
	}
}

// IdentityMetrics counts identity events. A nil *IdentityMetrics records nothing.
type IdentityMetrics struct {
	registrations       metric.Int64Counter
	logins              metric.Int64Counter
	passwordResets      metric.Int64Counter
	collectionMutations metric.Int64Counter
}

// NewIdentityMetrics registers the identity counters on the global meter provider
func NewIdentityMetrics() (*IdentityMetrics, error) {
	return NewIdentityMetricsWithMeter(otel.Meter(meterName))
}

// NewIdentityMetricsWithMeter registers the identity counters on the given meter
func NewIdentityMetricsWithMeter(meter metric.Meter) (*IdentityMetrics, error) {
	registrations, err := meter.Int64Counter("identity.registrations",
		metric.WithDescription("Accounts created, by credential origin"))
	if err != nil {
		return nil, fmt.Errorf("failed to create registrations counter: %w", err)
	}

	logins, err := meter.Int64Counter("identity.logins",
		metric.WithDescription("Login attempts, by outcome"))
	if err != nil {
		return nil, fmt.Errorf("failed to create logins counter: %w", err)
	}

	passwordResets, err := meter.Int64Counter("identity.password_resets",
		metric.WithDescription("Password reset steps, by stage and outcome"))
	if err != nil {
		return nil, fmt.Errorf("failed to create password resets counter: %w", err)
	}

	collectionMutations, err := meter.Int64Counter("identity.collection_mutations",
		metric.WithDescription("Cart and wishlist mutations, by collection and operation"))
	if err != nil {
		return nil, fmt.Errorf("failed to create collection mutations counter: %w", err)
	}

	return &IdentityMetrics{
		registrations:       registrations,
		logins:              logins,
		passwordResets:      passwordResets,
		collectionMutations: collectionMutations,
	}, nil
}

// RecordRegistration counts a created account
func (m *IdentityMetrics) RecordRegistration(ctx context.Context, origin string) {
	if m == nil {
		return
	}
	m.registrations.Add(ctx, 1, metric.WithAttributes(attribute.String("origin", origin)))
}

// RecordLogin counts a login attempt
func (m *IdentityMetrics) RecordLogin(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.logins.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordReset counts a reset step
func (m *IdentityMetrics) RecordReset(ctx context.Context, stage, outcome string) {
	if m == nil {
		return
	}
	m.passwordResets.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("outcome", outcome),
	))
}

// RecordCollectionMutation counts a cart or wishlist change
func (m *IdentityMetrics) RecordCollectionMutation(ctx context.Context, collection, operation string) {
	if m == nil {
		return
	}
	m.collectionMutations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("collection", collection),
		attribute.String("operation", operation),
	))
}
