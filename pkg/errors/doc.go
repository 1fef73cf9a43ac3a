// Package errors provides structured error handling with error codes.
//
// Services return *errors.Error values carrying a typed code; the API layer
// maps codes to HTTP statuses with MapErrorCodeToHTTPStatus and never leaks
// the wrapped underlying error to the caller.
//
// Creating errors:
//
//	err := errors.New(errors.ErrCodeUserNotFound, "user not found")
//	err := errors.Wrap(dbErr, errors.ErrCodeInternal, "failed to query users")
//	err := errors.RateLimitExceeded(retryAfterSeconds)
//
// Inspecting errors:
//
//	if errors.IsCode(err, errors.ErrCodeRateLimitExceeded) {
//		retry := errors.RetryAfterSeconds(err)
//		...
//	}
package errors
