package errors

import "net/http"

// ErrorCode identifies a failure category.  The string value is what the HTTP
// surface echoes in `{"success": false, "error": "<code>"}` bodies, so codes
// are spelled as client-facing kind names rather than numeric identifiers.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

const (
	// CodeOK is returned by GetCode for a nil error.
	CodeOK ErrorCode = "OK"

	// CodeUnknown marks errors that did not originate as an AppError.
	CodeUnknown ErrorCode = "Unknown"

	// CodeConfiguration marks required configuration missing or malformed.
	// Surfaced, never retried.
	CodeConfiguration ErrorCode = "ConfigurationError"

	// CodeCredentialsUnavailable means the credential broker cannot produce a
	// warehouse credential from either the configured path or object store.
	CodeCredentialsUnavailable ErrorCode = "CredentialsUnavailable"

	// CodeWarehouseUnavailable marks network, auth, or timeout failure talking to
	// the remote warehouse.  Fatal to the current ingest batch.
	CodeWarehouseUnavailable ErrorCode = "WarehouseUnavailable"

	// CodeWarehouseQueryInvalid means the warehouse rejected the SQL statement.
	CodeWarehouseQueryInvalid ErrorCode = "WarehouseQueryInvalid"

	// CodeLocalStore marks schema creation, write, or read failure on the local
	// store.  Partial writes from a failing batch remain; upserts are
	// idempotent so a retry is safe.
	CodeLocalStore ErrorCode = "LocalStoreError"

	// CodeNotFound means a looked-up entity does not exist.  Family lookups do not
	// use this: an unknown number yields an empty result, not an error.
	CodeNotFound ErrorCode = "NotFound"

	// CodeBadRequest means a caller-supplied parameter is out of range or
	// malformed at the HTTP boundary.
	CodeBadRequest ErrorCode = "BadRequest"

	// CodeInternal marks unexpected server-side failure with no better code.
	CodeInternal ErrorCode = "Internal"
)

// Process exit codes for CLI wrappers.
const (
	ExitOK         = 0
	ExitConfig     = 1
	ExitWarehouse  = 2
	ExitLocalStore = 3
)

// ExitCode maps an error to the documented process exit code:
// 0 success, 1 configuration/credential error, 2 warehouse error,
// 3 local-store error.  Unclassified failures fall back to 1.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch GetCode(err) {
	case CodeOK:
		return ExitOK
	case CodeWarehouseUnavailable, CodeWarehouseQueryInvalid:
		return ExitWarehouse
	case CodeLocalStore:
		return ExitLocalStore
	default:
		return ExitConfig
	}
}

// errorCodeHTTPStatus maps codes to HTTP statuses for the few places where a
// real status is wanted (health probes, panic recovery).  Domain failures on
// the query surface intentionally do NOT use this map: they answer 200 with a
// success:false body.
var errorCodeHTTPStatus = map[ErrorCode]int{
	CodeConfiguration:          http.StatusInternalServerError,
	CodeCredentialsUnavailable: http.StatusServiceUnavailable,
	CodeWarehouseUnavailable:   http.StatusServiceUnavailable,
	CodeWarehouseQueryInvalid:  http.StatusBadGateway,
	CodeLocalStore:             http.StatusInternalServerError,
	CodeNotFound:               http.StatusNotFound,
	CodeBadRequest:             http.StatusBadRequest,
	CodeInternal:               http.StatusInternalServerError,
}

// HTTPStatusForCode returns the HTTP status associated with code, defaulting
// to 500 for unknown codes.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
