package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ducminhle1904/dema-futures-bot/internal/indicators"
)

// ErrorCategory classifies failures seen by the trading loop
type ErrorCategory string

const (
	// Stop the bot
	ErrorCategoryFatal         ErrorCategory = "FATAL"
	ErrorCategoryCredentials   ErrorCategory = "CREDENTIALS"
	ErrorCategoryConfiguration ErrorCategory = "CONFIG"

	// Skip the cycle, the next one is the retry
	ErrorCategoryExchange ErrorCategory = "EXCHANGE"
	ErrorCategoryNetwork  ErrorCategory = "NETWORK"
	ErrorCategoryTimeout  ErrorCategory = "TIMEOUT"
	ErrorCategoryData     ErrorCategory = "DATA"
	ErrorCategoryOrder    ErrorCategory = "ORDER"

	// Back off before the next cycle
	ErrorCategoryRateLimit ErrorCategory = "RATE_LIMIT"
	ErrorCategoryTemporary ErrorCategory = "TEMPORARY"
)

// BotError represents a categorized error with context
type BotError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
	Retryable  bool
}

// Error implements the error interface
func (e *BotError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (e *BotError) Unwrap() error {
	return e.Underlying
}

// IsFatal returns whether this error should stop the bot
func (e *BotError) IsFatal() bool {
	return e.Category == ErrorCategoryFatal ||
		e.Category == ErrorCategoryCredentials ||
		e.Category == ErrorCategoryConfiguration
}

// NewBotError creates a new categorized bot error
func NewBotError(category ErrorCategory, component, operation, message string) *BotError {
	return &BotError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
		Retryable: isRetryableCategory(category),
	}
}

// WrapError wraps an existing error with bot error context
func WrapError(err error, category ErrorCategory, component, operation string) *BotError {
	if err == nil {
		return nil
	}

	return &BotError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
		Retryable:  isRetryableCategory(category),
	}
}

func isRetryableCategory(category ErrorCategory) bool {
	switch category {
	case ErrorCategoryFatal, ErrorCategoryCredentials, ErrorCategoryConfiguration, ErrorCategoryOrder:
		return false
	default:
		return true
	}
}

// statusCoder is implemented by transport errors that carry an HTTP status
type statusCoder interface {
	HTTPStatus() int
}

// retrier is implemented by transport errors that know whether a retry can succeed
type retrier interface {
	Retryable() bool
}

// CategorizeError attempts to categorize a generic error
func CategorizeError(err error, component, operation string) *BotError {
	if err == nil {
		return nil
	}

	var botErr *BotError
	if stderrors.As(err, &botErr) {
		return botErr
	}

	if stderrors.Is(err, indicators.ErrInsufficientData) || stderrors.Is(err, indicators.ErrInvalidWindow) {
		return WrapError(err, ErrorCategoryData, component, operation)
	}

	if stderrors.Is(err, context.DeadlineExceeded) {
		return WrapError(err, ErrorCategoryTimeout, component, operation)
	}

	var sc statusCoder
	if stderrors.As(err, &sc) {
		switch status := sc.HTTPStatus(); {
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return WrapError(err, ErrorCategoryCredentials, component, operation)
		case status == http.StatusTooManyRequests || status == 418:
			return WrapError(err, ErrorCategoryRateLimit, component, operation)
		case status >= 500:
			return WrapError(err, ErrorCategoryExchange, component, operation)
		}
	}

	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "timeout") {
		return WrapError(err, ErrorCategoryTimeout, component, operation)
	}

	// statuses were handled above, so a retryable error here never reached the exchange
	var rt retrier
	if stderrors.As(err, &rt) && rt.Retryable() {
		return WrapError(err, ErrorCategoryNetwork, component, operation)
	}

	if strings.Contains(errMsg, "connection") || strings.Contains(errMsg, "network") ||
		strings.Contains(errMsg, "dns") || strings.Contains(errMsg, "dial") {
		return WrapError(err, ErrorCategoryNetwork, component, operation)
	}

	if strings.Contains(errMsg, "api key") || strings.Contains(errMsg, "api-key") ||
		strings.Contains(errMsg, "signature") || strings.Contains(errMsg, "unauthorized") {
		return WrapError(err, ErrorCategoryCredentials, component, operation)
	}

	if strings.Contains(errMsg, "rate limit") || strings.Contains(errMsg, "too many requests") {
		return WrapError(err, ErrorCategoryRateLimit, component, operation)
	}

	if strings.Contains(errMsg, "insufficient") || strings.Contains(errMsg, "balance") ||
		strings.Contains(errMsg, "invalid") || strings.Contains(errMsg, "quantity") {
		return WrapError(err, ErrorCategoryOrder, component, operation)
	}

	return WrapError(err, ErrorCategoryTemporary, component, operation)
}

// RecoveryAction tells the trading loop how to continue after a failed cycle
type RecoveryAction string

const (
	RecoveryActionSkip RecoveryAction = "SKIP"
	RecoveryActionStop RecoveryAction = "STOP"
	RecoveryActionWait RecoveryAction = "WAIT"
)

// GetRecoveryAction suggests a recovery action based on error category
func (e *BotError) GetRecoveryAction() RecoveryAction {
	switch e.Category {
	case ErrorCategoryFatal, ErrorCategoryCredentials, ErrorCategoryConfiguration:
		return RecoveryActionStop
	case ErrorCategoryRateLimit, ErrorCategoryTemporary:
		return RecoveryActionWait
	default:
		return RecoveryActionSkip
	}
}

// ErrorStats tracks error statistics
type ErrorStats struct {
	TotalErrors      int
	ErrorsByCategory map[ErrorCategory]int
	RecentErrors     []*BotError
	MaxRecentErrors  int
}

// NewErrorStats creates a new error statistics tracker
func NewErrorStats(maxRecentErrors int) *ErrorStats {
	return &ErrorStats{
		ErrorsByCategory: make(map[ErrorCategory]int),
		RecentErrors:     make([]*BotError, 0, maxRecentErrors),
		MaxRecentErrors:  maxRecentErrors,
	}
}

// RecordError records an error in the statistics
func (es *ErrorStats) RecordError(err *BotError) {
	es.TotalErrors++
	es.ErrorsByCategory[err.Category]++

	es.RecentErrors = append(es.RecentErrors, err)
	if len(es.RecentErrors) > es.MaxRecentErrors {
		es.RecentErrors = es.RecentErrors[1:]
	}
}

// Recent returns the messages of the retained errors, oldest first
func (es *ErrorStats) Recent() []string {
	messages := make([]string, len(es.RecentErrors))
	for i, err := range es.RecentErrors {
		messages[i] = err.Error()
	}
	return messages
}
