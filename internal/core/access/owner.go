// Package access gates privileged operations on a single immutable owner.
package access

import (
	"errors"

	"crowdfund-ledger/internal/core/domain"
)

// ErrNotOwner is returned when a caller other than the owner attempts a privileged operation.
var ErrNotOwner = errors.New("caller is not the owner")

// Owner is set once at construction and has no setter.
type Owner struct {
	identity domain.Identity
}

// NewOwner fixes the owner identity.
func NewOwner(identity domain.Identity) (*Owner, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}
	return &Owner{identity: identity}, nil
}

func (o *Owner) Identity() domain.Identity {
	return o.identity
}

// Require returns ErrNotOwner unless caller is the owner.
func (o *Owner) Require(caller domain.Identity) error {
	if caller != o.identity {
		return ErrNotOwner
	}
	return nil
}
