package awsapi

import (
	"errors"

	"github.com/aws/smithy-go"
)

// ErrorCode extracts the service error code from an AWS SDK error,
// or "" when the error carries none (transport failures, context errors).
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// IsThrottle reports whether the error is a request-rate rejection.
// EC2 uses RequestLimitExceeded; other services use the Throttling family.
func IsThrottle(err error) bool {
	switch ErrorCode(err) {
	case "RequestLimitExceeded", "Throttling", "ThrottlingException", "RequestThrottled", "TooManyRequestsException":
		return true
	}
	return false
}

// IsServerFault reports whether the error is a service-side fault worth
// retrying (5xx family codes).
func IsServerFault(err error) bool {
	switch ErrorCode(err) {
	case "ServiceUnavailable", "InternalError", "InternalFailure", "RequestTimeout", "RequestTimeoutException":
		return true
	}
	return false
}

// IsTransport reports whether the error never reached the service: the SDK
// wraps those in an OperationError without an API error code.
func IsTransport(err error) bool {
	if ErrorCode(err) != "" {
		return false
	}
	var opErr *smithy.OperationError
	return errors.As(err, &opErr)
}
