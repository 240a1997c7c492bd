// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodgram_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "foodgram_api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)

	// Domain Metrics
	RecipesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foodgram_recipes_created_total",
			Help: "Total number of recipes published",
		},
	)

	// RecipeRelationChanges counts favorite and shopping cart edits.
	RecipeRelationChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_recipe_relation_changes_total",
			Help: "Total number of favorite and shopping cart additions and removals",
		},
		[]string{"relation", "action"}, // relation: favorites, shopping_cart; action: add, remove
	)

	SubscriptionChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_subscription_changes_total",
			Help: "Total number of subscriptions created and removed",
		},
		[]string{"action"},
	)

	ShoppingListDownloads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foodgram_shopping_list_downloads_total",
			Help: "Total number of shopping lists downloaded",
		},
	)

	MediaUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_media_uploads_total",
			Help: "Total number of stored images",
		},
		[]string{"kind", "backend"},
	)

	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_auth_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"}, // success, failure
	)
)

// RecordAPIRequest records API request metrics.
func RecordAPIRequest(method, route, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRelation records a favorite or shopping cart change.
func RecordRelation(relation string, added bool) {
	action := "remove"
	if added {
		action = "add"
	}
	RecipeRelationChanges.WithLabelValues(relation, action).Inc()
}

// RecordSubscription records a subscribe or unsubscribe.
func RecordSubscription(added bool) {
	action := "remove"
	if added {
		action = "add"
	}
	SubscriptionChanges.WithLabelValues(action).Inc()
}

// RecordLogin records the outcome of a login attempt.
func RecordLogin(ok bool) {
	result := "failure"
	if ok {
		result = "success"
	}
	AuthAttempts.WithLabelValues(result).Inc()
}
