package domain

import (
	"errors"
	"regexp"
)

// ErrInvalidIdentity is returned for empty or malformed identities.
var ErrInvalidIdentity = errors.New("invalid identity")

var identityRe = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]{1,64}$`)

// Identity names a caller: the registered account's username.
type Identity string

// Validate checks that the identity is non-empty and uses the safe character set.
func (i Identity) Validate() error {
	if !identityRe.MatchString(string(i)) {
		return ErrInvalidIdentity
	}
	return nil
}

func (i Identity) String() string {
	return string(i)
}
