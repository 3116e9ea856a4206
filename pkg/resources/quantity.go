/*
Copyright © 2025 k8s-run Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package resources normalizes user-supplied CPU and memory hints into
// cluster-valid quantity strings. Users write "8gb" or "500m-2000m"; the
// cluster's quantity grammar rejects the two-letter decimal forms, so gb and
// mb are rewritten to their binary-unit equivalents Gi and Mi. Tokens that
// already carry a valid suffix pass through untouched.
package resources

import (
	"fmt"
	"strconv"
	"strings"

	"k8s.io/apimachinery/pkg/api/resource"

	"github.com/k8s-run/k8r/pkg/errors"
)

// Range holds a normalized request/limit pair. A single input value sets
// both fields to the same quantity.
type Range struct {
	Request string
	Limit   string
}

// Normalize parses a resource spec, either a single token ("8gb", "1000m",
// "0.5") or a hyphen-separated range ("2gb-8gb", "500m-2000m"), into a
// Range of cluster-valid quantities. Malformed tokens fail with an
// INVALID_QUANTITY error before any cluster call is made.
func Normalize(spec string) (Range, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Range{}, errors.New(errors.ErrCodeInvalidQuantity, "empty resource spec")
	}

	lo, hi, ranged := splitRange(spec)
	if !ranged {
		q, err := normalizeToken(spec)
		if err != nil {
			return Range{}, err
		}
		return Range{Request: q, Limit: q}, nil
	}

	request, err := normalizeToken(lo)
	if err != nil {
		return Range{}, err
	}
	limit, err := normalizeToken(hi)
	if err != nil {
		return Range{}, err
	}
	return Range{Request: request, Limit: limit}, nil
}

// splitRange splits on the first hyphen that is not a leading sign. The
// second return covers the rest of the string; a stray extra hyphen there
// fails token validation downstream.
func splitRange(spec string) (string, string, bool) {
	if i := strings.Index(spec[1:], "-"); i >= 0 {
		return spec[:i+1], spec[i+2:], true
	}
	return spec, "", false
}

// normalizeToken rewrites the user-facing gb/mb suffixes to Gi/Mi and
// validates the result against the cluster's quantity grammar. Tokens with
// an already-valid suffix (Gi, Mi, G, M, m, bare numbers) pass through
// unchanged.
func normalizeToken(token string) (string, error) {
	token = strings.TrimSpace(token)

	lower := strings.ToLower(token)
	switch {
	case strings.HasSuffix(lower, "gb"):
		token = token[:len(token)-2] + "Gi"
	case strings.HasSuffix(lower, "mb"):
		token = token[:len(token)-2] + "Mi"
	}

	// ParseQuantity accepts a bare sign as zero, so a digit-free token has
	// to be rejected here.
	if !strings.ContainsAny(token, "0123456789") {
		return "", errors.New(errors.ErrCodeInvalidQuantity,
			fmt.Sprintf("invalid resource quantity %q", token))
	}

	if _, err := resource.ParseQuantity(token); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidQuantity,
			fmt.Sprintf("invalid resource quantity %q", token), err)
	}
	return token, nil
}

// ParseTimeout converts a timeout string such as "1h", "30m", "3600s", or a
// bare number of seconds into seconds.
func ParseTimeout(timeout string) (int64, error) {
	timeout = strings.TrimSpace(timeout)
	if timeout == "" {
		return 0, errors.New(errors.ErrCodeInvalidRequest, "empty timeout")
	}

	multiplier := int64(1)
	digits := timeout
	switch timeout[len(timeout)-1] {
	case 's':
		digits = timeout[:len(timeout)-1]
	case 'm':
		digits = timeout[:len(timeout)-1]
		multiplier = 60
	case 'h':
		digits = timeout[:len(timeout)-1]
		multiplier = 3600
	}

	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n < 0 {
		return 0, errors.Wrap(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid timeout %q", timeout), err)
	}
	return n * multiplier, nil
}
