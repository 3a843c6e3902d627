// Package apievents provides typed access to the API Gateway event formats
// a Lambda function receives through a proxy integration, plus request
// validation and response construction that work the same way across the
// 1.0 (REST and HTTP API payload v1) and 2.0 (HTTP API payload v2)
// formats.
//
// The entry point for most functions is a raw event as a generic map
// (Event); the format version is detected once and cached inside the
// event. Handlers are wrapped with Wrap, which runs validators before the
// business logic and converts structured API errors into proper error
// responses while letting programming faults propagate to the runtime.
package apievents
