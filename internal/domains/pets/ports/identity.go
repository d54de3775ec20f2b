package ports

import "context"

// IdentityResolver names the caller of the current operation. The value must be
// stable for the same end user across calls.
type IdentityResolver interface {
	CallerIdentity(ctx context.Context) (string, error)
}
