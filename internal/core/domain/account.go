package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrDuplicateIdentity is returned by account storage when the identity is taken.
var ErrDuplicateIdentity = errors.New("identity already exists")

// Account is a registered caller. Its username is the Identity used by the ledger.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Identity     Identity  `json:"identity"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
