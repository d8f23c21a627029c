package auth

import "context"

// Directory looks up operators by username.
type Directory interface {
	GetByUsername(ctx context.Context, username string) (Operator, bool, error)
}
