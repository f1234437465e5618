package domain

import "time"

// Category classifies what kind of failure occurred.
type Category string

const (
	CategoryValidation      Category = "validation"
	CategoryAuthentication  Category = "authentication"
	CategoryAuthorization   Category = "authorization"
	CategoryRateLimit       Category = "rate_limit"
	CategoryTimeout         Category = "timeout"
	CategoryNetwork         Category = "network"
	CategoryDatabase        Category = "database"
	CategoryCache           Category = "cache"
	CategoryExternalService Category = "external_service"
	CategoryBusinessLogic   Category = "business_logic"
	CategorySystem          Category = "system"
	CategorySecurity        Category = "security"
	CategoryUnknown         Category = "unknown"
)

// Severity ranks how serious a failure is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Strategy names the recovery mechanism assigned to a failure.
type Strategy string

const (
	StrategyRetry               Strategy = "retry"
	StrategyFallback            Strategy = "fallback"
	StrategyCircuitBreaker      Strategy = "circuit_breaker"
	StrategyGracefulDegradation Strategy = "graceful_degradation"
	StrategyFailFast            Strategy = "fail_fast"
	StrategyManualIntervention  Strategy = "manual_intervention"
)

// RequestContext identifies the request a failure belongs to.
type RequestContext struct {
	RequestID     string `json:"request_id"`
	Endpoint      string `json:"endpoint"`
	Method        string `json:"method,omitempty"`
	UserID        string `json:"user_id,omitempty"`
	SessionID     string `json:"session_id,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// RecoveryState tracks what recovery has been attempted for a failure.
// RetryCount never exceeds MaxRetries, and Attempted is set before any
// primitive runs and is never cleared on the same record.
type RecoveryState struct {
	Strategy     Strategy  `json:"strategy"`
	Attempted    bool      `json:"attempted"`
	Successful   bool      `json:"successful"`
	RetryCount   int       `json:"retry_count"`
	MaxRetries   int       `json:"max_retries"`
	NextRetryAt  time.Time `json:"next_retry_at,omitempty"`
	FallbackUsed bool      `json:"fallback_used"`
}

// MonitoringState holds observability bookkeeping for a failure.
type MonitoringState struct {
	ProcessingTime time.Duration `json:"processing_time"`
	AlertTriggered bool          `json:"alert_triggered"`
}

// FailureRecord is the structured form of one handled failure. It is
// created by the classifier and mutated only by the primitive actively
// handling it.
type FailureRecord struct {
	ID          string          `json:"id"`
	Message     string          `json:"message"`
	Category    Category        `json:"category"`
	Severity    Severity        `json:"severity"`
	StatusCode  int             `json:"status_code"`
	CreatedAt   time.Time       `json:"created_at"`
	RequestID   string          `json:"request_id"`
	Context     RequestContext  `json:"context"`
	Recovery    RecoveryState   `json:"recovery"`
	UserMessage string          `json:"user_message"`
	Suggestions []string        `json:"suggestions"`
	Monitoring  MonitoringState `json:"monitoring"`
}
