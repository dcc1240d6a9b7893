// Package idempotency replays stored responses for repeated
// Idempotency-Key submissions. Once a create or mint has been accepted by
// the ledger it must never be submitted twice, so a client retrying after a
// timeout gets the recorded outcome instead of a second transaction.
package idempotency

import "context"

type Store interface {
	// Get returns (status, body, found). A nil error with found=false means
	// the key has not been seen.
	Get(ctx context.Context, scope, key, endpoint string) (int, []byte, bool, error)
	Save(ctx context.Context, scope, key, endpoint string, status int, body []byte) error
}

// Replay looks up a previously stored response. An empty key disables
// replay entirely.
func Replay(ctx context.Context, st Store, scope, key, endpoint string) (int, []byte, bool, error) {
	if key == "" {
		return 0, nil, false, nil
	}
	return st.Get(ctx, scope, key, endpoint)
}

// Save records a terminal response for later replay. No-op for an empty
// key.
func Save(ctx context.Context, st Store, scope, key, endpoint string, status int, body []byte) error {
	if key == "" {
		return nil
	}
	return st.Save(ctx, scope, key, endpoint, status, body)
}
