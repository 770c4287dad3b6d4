package observability

// Metric name prefixes
const (
	MetricPrefix = "wealthreactor"
)

// Metric names
const (
	// Registry metrics
	ReservationsTotal = MetricPrefix + ".users.reservations_total"

	// Payment metrics
	PaymentVerificationsTotal = MetricPrefix + ".payments.verifications_total"
	OracleCallDuration        = MetricPrefix + ".payments.oracle_call_duration"

	// Attribution metrics
	CommissionsCreditedTotal = MetricPrefix + ".commissions.credited_total"

	// Rotator metrics
	RotatorJoinsTotal    = MetricPrefix + ".rotator.joins_total"
	RotatorFeaturedTotal = MetricPrefix + ".rotator.featured_total"

	// NATS metrics
	EventsPublishedTotal = MetricPrefix + ".nats.events_published_total"

	// HTTP metrics
	HTTPRequestsTotal   = MetricPrefix + ".http.requests_total"
	HTTPRequestDuration = MetricPrefix + ".http.request_duration"
)

// Label keys
const (
	LabelOutcome   = "outcome"
	LabelLevel     = "level"
	LabelEventType = "event_type"
	LabelStrategy  = "strategy"
	LabelMethod    = "method"
	LabelRoute     = "route"
	LabelStatus    = "status"
	LabelExtended  = "extended"
)

// Payment verification outcomes
const (
	OutcomeVerified    = "verified"
	OutcomeAlreadyPaid = "already_paid"
	OutcomeNotFound    = "not_found"
	OutcomeUnreachable = "unreachable"
	OutcomeUnknownUser = "unknown_user"
	OutcomeError       = "error"
)

// Reservation outcomes
const (
	OutcomeReserved = "reserved"
	OutcomeTaken    = "taken"
	OutcomeInvalid  = "invalid"
)

// Featured pick outcomes
const (
	OutcomeFeatured = "featured"
	OutcomeEmpty    = "empty"
)
