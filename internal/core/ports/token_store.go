package ports

import "context"

// TokenStorageKey is the fixed key the bearer token is persisted under.
const TokenStorageKey = "budget_tracker_token"

// TokenStore is the durable storage for the bearer token.
type TokenStore interface {
	// Load returns the persisted token, or "" when none is stored.
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	// Delete removes the persisted token. Deleting a missing token is not an error.
	Delete(ctx context.Context) error
}

// TokenHolder is the part of the API client the session store drives.
// Every request captures the token current at dispatch time.
type TokenHolder interface {
	SetToken(token string)
}
