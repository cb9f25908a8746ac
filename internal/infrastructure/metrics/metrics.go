package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Posting metrics
	EntriesPosted    *prometheus.CounterVec
	EntriesReversed  *prometheus.CounterVec
	PostingsSkipped  *prometheus.CounterVec
	PostingDuration  *prometheus.HistogramVec
	PostingErrors    *prometheus.CounterVec
	PostedAmount     *prometheus.HistogramVec
	VersionConflicts *prometheus.CounterVec

	// Document metrics
	PaymentsCreated  *prometheus.CounterVec
	PaymentsEdited   *prometheus.CounterVec
	DocumentsVoided  *prometheus.CounterVec
	DocumentsCreated *prometheus.CounterVec

	// Account metrics
	AccountsCreated prometheus.Counter
	AccountBalance  *prometheus.GaugeVec

	// Reconciliation metrics
	ReconciliationDifferences *prometheus.CounterVec
	ConsistencyChecks         *prometheus.CounterVec

	// Exchange rate metrics
	RateCacheLookups *prometheus.CounterVec

	// Outbox metrics
	OutboxPublished     *prometheus.CounterVec
	OutboxPublishErrors *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec

	// Audit metrics
	AuditLogsCreated *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Posting metrics
		EntriesPosted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "erpledger_journal_entries_posted_total",
				Help: "Total number of journal entries posted by source type",
			},
			[]string{"source_type"},
		),
		EntriesReversed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "erpledger_journal_entries_reversed_total",
				Help: "Total number of reversing entries appended by source type",
			},
			[]string{"source_type"},
		),
		PostingsSkipped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "erpledger_postings_skipped_total",
				Help: "Documents stored without a journal entry because an account was missing",
			},
			[]string{"source_type"},
		),
		PostingDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "erpledger_posting_duration_seconds",
				Help:    "Duration of posting operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		PostingErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "erpledger_posting_errors_total",
				Help: "Total number of failed posting operations",
			},
			[]string{"operation"},
		),
		PostedAmount: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "erpledger_posted_amount",
				Help:    "Journal entry totals in base currency",
				Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
			},
			[]string{"source_type"},
		),
		VersionConflicts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "erpledger_version_conflicts_total",
				Help: "Edits rejected by version check or record lock",
			},
			[]string{"resource"},
		),

		// Document metrics
		PaymentsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "erpledger_payments_created_total",
				Help: "Total number of payments created",
			},
			[]string{"payment_type"},
		),
		PaymentsEdited: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "erpledger_payments_edited_total",
				Help: "Total number of payments edited",
			},
			[]string{"payment_type"},
		),
		DocumentsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "erpledger_documents_created_total",
				Help: "Total number of invoices and bills created",
			},
			[]string{"kind"},
		),
		DocumentsVoided: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "erpledger_documents_voided_total",
				Help: "Total number of documents voided",
			},
			[]string{"kind"},
		),

		// Account metrics
		AccountsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "erpledger_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		AccountBalance: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "erpledger_account_balance",
				Help: "Current account balance in base currency",
			},
			[]string{"company_id", "account_code"},
		),

		// Reconciliation metrics
		ReconciliationDifferences: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "erpledger_reconciliation_differences_total",
				Help: "Accounts whose running balance differs from their journal lines",
			},
			[]string{"company_id"},
		),
		ConsistencyChecks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "erpledger_consistency_checks_total",
				Help: "Ledger consistency checks by result",
			},
			[]string{"result"},
		),

		// Exchange rate metrics
		RateCacheLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "erpledger_rate_cache_lookups_total",
				Help: "Exchange rate cache lookups by result",
			},
			[]string{"result"},
		),

		// Outbox metrics
		OutboxPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "erpledger_outbox_published_total",
				Help: "Outbox events published by event type",
			},
			[]string{"event_type"},
		),
		OutboxPublishErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "erpledger_outbox_publish_errors_total",
				Help: "Outbox events that failed to publish",
			},
			[]string{"event_type"},
		),

		// Rate limiting metrics
		RateLimitHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "erpledger_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),

		// Audit metrics
		AuditLogsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "erpledger_audit_logs_total",
				Help: "Total audit logs created",
			},
			[]string{"action", "status"},
		),
	}
}
