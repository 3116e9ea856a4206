// Package errors provides structured error types shared across k8r.
//
// Every fatal error surfaced by the CLI carries an ErrorCode so callers can
// distinguish, for example, a name collision (NAME_CONFLICT, remediable with
// --rm) from a cluster rejection (APPLY_FAILED, surfaced verbatim). Errors
// wrap their underlying cause and work with the standard errors.Is/errors.As
// helpers.
package errors
