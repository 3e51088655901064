package embeddings

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// RetryPolicy bounds the retry loop around provider calls: a fixed attempt
// ceiling with exponentially growing delays capped at MaxDelay.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     60 * time.Second,
	}
}

// rateLimited reports whether err is the provider's rate-limit signal.
func rateLimited(err error) bool {
	var apiErr *openai.APIError
	return errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429
}

// retryable reports whether err is a transient provider error worth another
// attempt. Anything that is not an API or transport error (for example a
// canceled context) fails immediately.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return true
	}
	var reqErr *openai.RequestError
	return errors.As(err, &reqErr)
}

// retryAfterPattern extracts the wait hint the provider embeds in rate-limit
// error messages ("Please try again in 20s"). The SDK does not surface the
// Retry-After header itself.
var retryAfterPattern = regexp.MustCompile(`try again in (\d+(?:\.\d+)?)s`)

func retryAfterHint(err error) (time.Duration, bool) {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return 0, false
	}
	match := retryAfterPattern.FindStringSubmatch(apiErr.Message)
	if match == nil {
		return 0, false
	}
	seconds, parseErr := strconv.ParseFloat(match[1], 64)
	if parseErr != nil || seconds <= 0 {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}

// callWithRetry runs call under the policy. Rate-limit errors wait for the
// provider's suggested interval when one is present, otherwise the current
// backoff delay; other transient errors always use the backoff delay.
func callWithRetry[T any](ctx context.Context, policy RetryPolicy, logger *log.Logger, call func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	delay := policy.InitialDelay

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		result, err := call(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !retryable(err) {
			return zero, err
		}
		if attempt == policy.MaxAttempts {
			break
		}

		wait := delay
		if rateLimited(err) {
			if hint, ok := retryAfterHint(err); ok {
				wait = hint
			}
			logger.Printf("rate limit hit, waiting %s before retry (attempt %d/%d)", wait, attempt, policy.MaxAttempts)
		} else {
			logger.Printf("transient API error, retrying in %s (attempt %d/%d): %v", wait, attempt, policy.MaxAttempts, err)
		}

		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("canceled during retry wait: %w", ctx.Err())
		case <-time.After(wait):
		}
		delay = min(delay*2, policy.MaxDelay)
	}

	return zero, fmt.Errorf("giving up after %d attempts: %w", policy.MaxAttempts, lastErr)
}
