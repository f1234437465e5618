// Package classify inspects raw failures and assigns them a category,
// severity, status code, user-facing message, and recovery strategy.
package classify

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iwangdonghui/tsconv-sub005/internal/core/domain"
)

// categoryRule maps message/type substrings to a category. Rules are
// evaluated in order; the first match wins.
type categoryRule struct {
	category domain.Category
	keywords []string
}

// The heuristic only covers categories that commonly surface through
// untagged errors. Failures raised with an explicit domain.Error tag
// bypass it entirely.
var categoryRules = []categoryRule{
	{domain.CategoryValidation, []string{"validation", "invalid", "required", "malformed", "parse"}},
	{domain.CategoryTimeout, []string{"timeout", "timed out", "deadline exceeded"}},
	{domain.CategoryAuthentication, []string{"auth", "unauthorized", "token", "credential"}},
	{domain.CategoryRateLimit, []string{"rate limit", "too many requests", "429", "quota"}},
	{domain.CategoryNetwork, []string{"network", "connection", "dns", "unreachable", "refused", "socket"}},
	{domain.CategoryDatabase, []string{"database", "sql", "postgres", "pq:"}},
	{domain.CategoryCache, []string{"cache", "redis"}},
	{domain.CategorySecurity, []string{"security", "csrf", "injection", "xss"}},
}

var severityByCategory = map[domain.Category]domain.Severity{
	domain.CategorySecurity:        domain.SeverityCritical,
	domain.CategorySystem:          domain.SeverityCritical,
	domain.CategoryDatabase:        domain.SeverityHigh,
	domain.CategoryAuthentication:  domain.SeverityHigh,
	domain.CategoryExternalService: domain.SeverityMedium,
	domain.CategoryTimeout:         domain.SeverityMedium,
}

var statusByCategory = map[domain.Category]int{
	domain.CategoryValidation:      400,
	domain.CategoryAuthentication:  401,
	domain.CategoryAuthorization:   403,
	domain.CategoryRateLimit:       429,
	domain.CategoryTimeout:         408,
	domain.CategoryExternalService: 500,
	domain.CategoryDatabase:        500,
	domain.CategoryCache:           500,
	domain.CategorySystem:          500,
}

var strategyByCategory = map[domain.Category]domain.Strategy{
	domain.CategoryTimeout:         domain.StrategyRetry,
	domain.CategoryNetwork:         domain.StrategyRetry,
	domain.CategoryExternalService: domain.StrategyFallback,
	domain.CategoryCache:           domain.StrategyFallback,
	domain.CategoryDatabase:        domain.StrategyCircuitBreaker,
	domain.CategoryValidation:      domain.StrategyFailFast,
}

// Config tunes classifier output.
type Config struct {
	// MaxRetries is recorded on every classified failure as the retry
	// budget the recovery layer will honor.
	MaxRetries int
}

// DefaultConfig provides sensible defaults.
func DefaultConfig() Config {
	return Config{MaxRetries: 3}
}

// Classifier turns raw errors into structured failure records. Its
// output is a pure function of the failure's message, type, and tag:
// the same input always classifies identically.
type Classifier struct {
	cfg Config
	now func() time.Time
}

// New creates a classifier.
func New(cfg Config) *Classifier {
	return &Classifier{cfg: cfg, now: time.Now}
}

// Classify builds a FailureRecord for err in the given request context.
func (c *Classifier) Classify(err error, rctx domain.RequestContext) *domain.FailureRecord {
	category := Categorize(err)
	severity := SeverityOf(category)

	return &domain.FailureRecord{
		ID:         uuid.NewString(),
		Message:    err.Error(),
		Category:   category,
		Severity:   severity,
		StatusCode: StatusCodeOf(category),
		CreatedAt:  c.now(),
		RequestID:  rctx.RequestID,
		Context:    rctx,
		Recovery: domain.RecoveryState{
			Strategy:   StrategyFor(category, severity),
			MaxRetries: c.cfg.MaxRetries,
		},
		UserMessage: userMessage(category),
		Suggestions: suggestions(category),
	}
}

// Categorize assigns a failure category. Errors tagged with an explicit
// category are honored directly; everything else goes through ordered
// best-effort substring matching over the error message and type name.
func Categorize(err error) domain.Category {
	var tagged *domain.Error
	if errors.As(err, &tagged) && tagged.Category != "" {
		return tagged.Category
	}

	haystack := strings.ToLower(fmt.Sprintf("%s %T", err.Error(), err))
	for _, rule := range categoryRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(haystack, keyword) {
				return rule.category
			}
		}
	}
	return domain.CategoryUnknown
}

// SeverityOf maps a category to its severity.
func SeverityOf(category domain.Category) domain.Severity {
	if s, ok := severityByCategory[category]; ok {
		return s
	}
	return domain.SeverityLow
}

// StatusCodeOf maps a category to an HTTP-like status code.
func StatusCodeOf(category domain.Category) int {
	if code, ok := statusByCategory[category]; ok {
		return code
	}
	return 500
}

// StrategyFor chooses the recovery strategy. Critical severity always
// demands manual intervention, regardless of category.
func StrategyFor(category domain.Category, severity domain.Severity) domain.Strategy {
	if severity == domain.SeverityCritical {
		return domain.StrategyManualIntervention
	}
	if s, ok := strategyByCategory[category]; ok {
		return s
	}
	return domain.StrategyGracefulDegradation
}
