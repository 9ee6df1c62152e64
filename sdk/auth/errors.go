package auth

import (
	"errors"
	"fmt"
)

// ErrNoPendingLogin is returned by CompleteLogin when no login has been started.
var ErrNoPendingLogin = errors.New("codex auth: no pending login")

// DuplicateAccountError indicates that an account name is already taken.
type DuplicateAccountError struct {
	Name string
}

func (e *DuplicateAccountError) Error() string {
	if e == nil {
		return "codex auth: account already exists"
	}
	return fmt.Sprintf("codex auth: an account with name '%s' already exists", e.Name)
}

// AccountNotFoundError indicates that no stored account has the requested id.
type AccountNotFoundError struct {
	ID string
}

func (e *AccountNotFoundError) Error() string {
	if e == nil {
		return "codex auth: account not found"
	}
	return fmt.Sprintf("codex auth: account not found: %s", e.ID)
}
