// Package gateway maps each backend capability onto one API client call.
// Errors from the client are returned unchanged so callers can match the
// domain sentinels with errors.Is.
package gateway

import (
	"context"
	"net/url"
)

// Requester is the subset of *apiclient.Client the gateways use.
type Requester interface {
	Do(ctx context.Context, method, path string, query url.Values, body, out any) error
	Download(ctx context.Context, path string, query url.Values) (string, []byte, error)
}
