package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the service's Prometheus collectors
type Registry struct {
	reg *prometheus.Registry

	PurchasesRecorded prometheus.Counter
	PurchasesMerged   prometheus.Counter
	BoothAdjustments  prometheus.Counter
	PaymentsAdded     prometheus.Counter
	RecordsDeleted    prometheus.Counter
	StorageErrors     prometheus.Counter
	PurchaseLatency   prometheus.Histogram
}

// NewRegistry creates and registers all collectors
func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	purchasesRecorded := prometheus.NewCounter(prometheus.CounterOpts{Name: "kiosk_purchases_recorded_total"})
	purchasesMerged := prometheus.NewCounter(prometheus.CounterOpts{Name: "kiosk_purchases_merged_total"})
	boothAdjustments := prometheus.NewCounter(prometheus.CounterOpts{Name: "kiosk_booth_adjustments_total"})
	paymentsAdded := prometheus.NewCounter(prometheus.CounterOpts{Name: "kiosk_payments_added_total"})
	recordsDeleted := prometheus.NewCounter(prometheus.CounterOpts{Name: "kiosk_records_deleted_total"})
	storageErrors := prometheus.NewCounter(prometheus.CounterOpts{Name: "kiosk_storage_errors_total"})
	purchaseLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "kiosk_purchase_latency_seconds",
		Buckets: prometheus.DefBuckets,
	})

	r.MustRegister(purchasesRecorded, purchasesMerged, boothAdjustments, paymentsAdded, recordsDeleted, storageErrors, purchaseLatency)

	return &Registry{
		reg:               r,
		PurchasesRecorded: purchasesRecorded,
		PurchasesMerged:   purchasesMerged,
		BoothAdjustments:  boothAdjustments,
		PaymentsAdded:     paymentsAdded,
		RecordsDeleted:    recordsDeleted,
		StorageErrors:     storageErrors,
		PurchaseLatency:   purchaseLatency,
	}
}

// Handler returns the HTTP handler serving the registry
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
