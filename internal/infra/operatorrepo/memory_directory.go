package operatorrepo

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/yanqian/surgecast/internal/domain/auth"
)

// MemoryDirectory holds operators declared in configuration.
type MemoryDirectory struct {
	mu        sync.RWMutex
	operators map[string]auth.Operator
}

// NewMemoryDirectory indexes ops by lower-cased username. Duplicate usernames
// and unknown roles are rejected.
func NewMemoryDirectory(ops []auth.Operator) (*MemoryDirectory, error) {
	dir := &MemoryDirectory{operators: make(map[string]auth.Operator, len(ops))}
	for _, op := range ops {
		key := strings.ToLower(strings.TrimSpace(op.Username))
		if key == "" {
			return nil, fmt.Errorf("operator username cannot be empty")
		}
		if !op.Role.Valid() {
			return nil, fmt.Errorf("operator %q has unknown role %q", key, op.Role)
		}
		if _, exists := dir.operators[key]; exists {
			return nil, fmt.Errorf("operator %q declared twice", key)
		}
		op.Username = key
		dir.operators[key] = op
	}
	return dir, nil
}

// GetByUsername returns the operator with the given username.
func (d *MemoryDirectory) GetByUsername(_ context.Context, username string) (auth.Operator, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	op, ok := d.operators[strings.ToLower(username)]
	return op, ok, nil
}

// Len reports how many operators are configured.
func (d *MemoryDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.operators)
}

var _ auth.Directory = (*MemoryDirectory)(nil)
