// Package account contains the account domain model: the identity anchor
// every streak, ledger entry, and goal hangs off. No external dependencies.
package account

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Tojustn/Shepherd/internal/domain/progression"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Handle is the stable external identity of an account: the GitHub login used
// to resolve inbound webhook senders. Immutable once set.
type Handle string

// IsValid checks that the handle is a plausible GitHub login.
func (h Handle) IsValid() bool {
	s := string(h)
	return len(s) >= 1 && len(s) <= 39 && !strings.ContainsAny(s, " \t\n\r")
}

// String returns the string representation of the handle.
func (h Handle) String() string {
	return string(h)
}

// XP represents cumulative experience points.
type XP int

// IsValid checks that XP is non-negative.
func (x XP) IsValid() bool {
	return x >= 0
}

// Add returns the XP increased by delta.
func (x XP) Add(delta int) XP {
	return x + XP(delta)
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidHandle - handle fails GitHub login constraints.
	ErrInvalidHandle = errors.New("invalid handle: must be 1-39 chars without whitespace")

	// ErrInvalidXP - XP must be non-negative.
	ErrInvalidXP = errors.New("invalid xp: must be non-negative")

	// ErrInvalidDisplayName - display name fails length constraints.
	ErrInvalidDisplayName = errors.New("invalid display name: must be 1-100 chars")

	// ErrAccountNotFound - account lookup miss.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountAlreadyExists - handle is already registered.
	ErrAccountAlreadyExists = errors.New("account already exists")
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: ACCOUNT
// ══════════════════════════════════════════════════════════════════════════════

// Account is the central entity of the engine. Cumulative XP only grows
// outside administrative correction; Level is always derivable from XP.
type Account struct {
	// ID - internal unique identifier (UUID in string form).
	ID string

	// Handle - external identity used to resolve webhook senders.
	Handle Handle

	// DisplayName - mutable display name shown to the user.
	DisplayName string

	// XP - cumulative experience points.
	XP XP

	// Level - level derived from XP. Stored denormalized so level-up
	// detection can compare against the previous value.
	Level int

	// PendingLevelUp - set when a level-up happens, cleared only by an
	// explicit client acknowledgment.
	PendingLevelUp bool

	// CreatedAt - record creation time.
	CreatedAt time.Time

	// UpdatedAt - last modification time.
	UpdatedAt time.Time
}

// NewAccountParams contains the parameters for creating a new account.
type NewAccountParams struct {
	ID          string
	Handle      Handle
	DisplayName string
}

// NewAccount creates a new account with validation. Accounts start at level 1
// with zero XP; they are created on first successful external-identity
// verification and never deleted by this engine.
func NewAccount(params NewAccountParams) (*Account, error) {
	if params.ID == "" {
		return nil, errors.New("account id is required")
	}
	if !params.Handle.IsValid() {
		return nil, ErrInvalidHandle
	}

	displayName := strings.TrimSpace(params.DisplayName)
	if displayName == "" {
		displayName = params.Handle.String()
	}
	if len(displayName) > 100 {
		return nil, ErrInvalidDisplayName
	}

	now := time.Now().UTC()

	return &Account{
		ID:          params.ID,
		Handle:      params.Handle,
		DisplayName: displayName,
		XP:          0,
		Level:       1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS
// ══════════════════════════════════════════════════════════════════════════════

// GainXP adds the awarded amount, recomputes the level, and raises the
// pending-level-up flag when the level increased. Returns whether a level-up
// occurred. The flag is never cleared here.
func (a *Account) GainXP(amount int) (levelUp bool, err error) {
	if amount < 0 {
		return false, ErrInvalidXP
	}

	a.XP = a.XP.Add(amount)
	newLevel := progression.LevelFor(int(a.XP))
	levelUp = newLevel > a.Level
	a.Level = newLevel
	if levelUp {
		a.PendingLevelUp = true
	}
	a.UpdatedAt = time.Now().UTC()

	return levelUp, nil
}

// AcknowledgeLevelUp clears the pending-level-up flag. Called when the client
// has shown the level-up to the user.
func (a *Account) AcknowledgeLevelUp() {
	a.PendingLevelUp = false
	a.UpdatedAt = time.Now().UTC()
}

// Rename updates the display name.
func (a *Account) Rename(name string) error {
	name = strings.TrimSpace(name)
	if len(name) == 0 || len(name) > 100 {
		return ErrInvalidDisplayName
	}
	a.DisplayName = name
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// String returns a string representation for logging.
func (a *Account) String() string {
	return fmt.Sprintf("Account{ID: %s, Handle: %s, XP: %d, Level: %d}",
		a.ID, a.Handle, a.XP, a.Level)
}

// Clone creates a shallow copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}
