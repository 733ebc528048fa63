package identity

import (
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/playhub/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Role is the platform-wide role of a user
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Status is the account status of a user
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// AggregateTypeUser is the aggregate type name used in domain events
const AggregateTypeUser = "User"

const (
	// MaxFailedLoginAttempts locks the account once reached
	MaxFailedLoginAttempts = 5
	// LockoutDuration is how long a locked account stays locked
	LockoutDuration = 15 * time.Minute
)

// PasswordHashCost is the bcrypt cost for new password hashes
var PasswordHashCost = 12

var (
	ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")
	ErrAccountLocked      = shared.NewDomainError("ACCOUNT_LOCKED", "Account is temporarily locked after too many failed login attempts")
	ErrAccountSuspended   = shared.ErrForbidden.WithMessage("Account is suspended")
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)

var folder = cases.Fold()

// User is a registered account with its public profile
type User struct {
	shared.BaseAggregateRoot
	Username            string
	Email               string
	PasswordHash        string
	DisplayName         string
	Bio                 string
	Location            string
	Website             string
	AvatarURL           string
	Role                Role
	Status              Status
	FollowerCount       int
	FollowingCount      int
	FailedLoginAttempts int
	LockedUntil         *time.Time
	LastLoginAt         *time.Time
	PasswordChangedAt   *time.Time
}

// NewUser creates an active user with a hashed password
func NewUser(username, email, password, displayName string) (*User, error) {
	normalizedUsername, err := NormalizeUsername(username)
	if err != nil {
		return nil, err
	}
	normalizedEmail, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = normalizedUsername
	}
	if err := validateDisplayName(displayName); err != nil {
		return nil, err
	}

	user := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Username:          normalizedUsername,
		Email:             normalizedEmail,
		DisplayName:       displayName,
		Role:              RoleUser,
		Status:            StatusActive,
	}
	if err := user.setPassword(password); err != nil {
		return nil, err
	}

	user.AddDomainEvent(NewUserRegisteredEvent(user))
	return user, nil
}

// NormalizeUsername applies NFKC and case folding and validates the result
func NormalizeUsername(username string) (string, error) {
	u := folder.String(norm.NFKC.String(strings.TrimSpace(username)))
	if u == "" {
		return "", shared.NewDomainError("INVALID_USERNAME", "Username cannot be empty")
	}
	if !usernamePattern.MatchString(u) {
		return "", shared.NewDomainError("INVALID_USERNAME",
			"Username must be 3 to 30 characters of lowercase letters, digits and underscores")
	}
	return u, nil
}

// NormalizeEmail applies NFKC and case folding and validates the address
func NormalizeEmail(email string) (string, error) {
	e := folder.String(norm.NFKC.String(strings.TrimSpace(email)))
	if e == "" || len(e) > 254 {
		return "", shared.NewDomainError("INVALID_EMAIL", "Invalid email address")
	}
	addr, err := mail.ParseAddress(e)
	if err != nil || addr.Address != e || !strings.Contains(e[strings.LastIndex(e, "@"):], ".") {
		return "", shared.NewDomainError("INVALID_EMAIL", "Invalid email address")
	}
	return e, nil
}

// ValidatePassword enforces the password policy: 8 to 72 bytes with at
// least one letter and one digit
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewDomainError("WEAK_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError("WEAK_PASSWORD", "Password cannot exceed 72 bytes")
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return shared.NewDomainError("WEAK_PASSWORD", "Password must contain at least one letter and one number")
	}
	return nil
}

func (u *User) setPassword(password string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordHashCost)
	if err != nil {
		return err
	}
	now := time.Now()
	u.PasswordHash = string(hash)
	u.PasswordChangedAt = &now
	return nil
}

// VerifyPassword reports whether password matches the stored hash
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// ChangePassword verifies the current password and sets a new one
func (u *User) ChangePassword(current, next string) error {
	if !u.VerifyPassword(current) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}
	if current == next {
		return shared.NewDomainError("WEAK_PASSWORD", "New password must differ from the current one")
	}
	if err := u.setPassword(next); err != nil {
		return err
	}
	u.Touch()
	u.IncrementVersion()
	return nil
}

// IsLocked reports whether the login lockout is in effect at now
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// CheckCanLogin returns the error that prevents login, if any
func (u *User) CheckCanLogin(now time.Time) error {
	if u.Status == StatusSuspended {
		return ErrAccountSuspended
	}
	if u.IsLocked(now) {
		return ErrAccountLocked
	}
	return nil
}

// RecordFailedLogin counts a failed attempt and locks the account when the
// limit is reached. Returns true when this attempt caused the lock.
func (u *User) RecordFailedLogin(now time.Time) bool {
	if u.LockedUntil != nil && !now.Before(*u.LockedUntil) {
		u.LockedUntil = nil
		u.FailedLoginAttempts = 0
	}
	u.FailedLoginAttempts++
	u.UpdatedAt = now
	if u.FailedLoginAttempts >= MaxFailedLoginAttempts {
		until := now.Add(LockoutDuration)
		u.LockedUntil = &until
		u.FailedLoginAttempts = 0
		return true
	}
	return false
}

// RecordSuccessfulLogin resets the failure counter and stamps the login time
func (u *User) RecordSuccessfulLogin(now time.Time) {
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	u.LastLoginAt = &now
	u.UpdatedAt = now
}

// ProfileUpdate carries optional profile changes; nil fields are left unchanged
type ProfileUpdate struct {
	DisplayName *string
	Bio         *string
	Location    *string
	Website     *string
}

// UpdateProfile applies the non-nil fields after validating them
func (u *User) UpdateProfile(update ProfileUpdate) error {
	next := *u
	if update.DisplayName != nil {
		next.DisplayName = strings.TrimSpace(*update.DisplayName)
		if err := validateDisplayName(next.DisplayName); err != nil {
			return err
		}
	}
	if update.Bio != nil {
		next.Bio = strings.TrimSpace(*update.Bio)
		if utf8.RuneCountInString(next.Bio) > 500 {
			return shared.NewDomainError("INVALID_BIO", "Bio cannot exceed 500 characters")
		}
	}
	if update.Location != nil {
		next.Location = strings.TrimSpace(*update.Location)
		if utf8.RuneCountInString(next.Location) > 100 {
			return shared.NewDomainError("INVALID_LOCATION", "Location cannot exceed 100 characters")
		}
	}
	if update.Website != nil {
		next.Website = strings.TrimSpace(*update.Website)
		if err := validateWebsite(next.Website); err != nil {
			return err
		}
	}

	u.DisplayName = next.DisplayName
	u.Bio = next.Bio
	u.Location = next.Location
	u.Website = next.Website
	u.Touch()
	u.IncrementVersion()
	return nil
}

// SetAvatar stores the public URL of the user's avatar
func (u *User) SetAvatar(url string) {
	u.AvatarURL = url
	u.Touch()
	u.IncrementVersion()
}

// Suspend blocks the user from logging in
func (u *User) Suspend() error {
	if u.Status == StatusSuspended {
		return shared.ErrInvalidState.WithMessage("User is already suspended")
	}
	if u.Role == RoleAdmin {
		return shared.ErrForbidden.WithMessage("Administrators cannot be suspended")
	}
	u.Status = StatusSuspended
	u.Touch()
	u.IncrementVersion()
	u.AddDomainEvent(NewUserStatusChangedEvent(u))
	return nil
}

// Reactivate lifts a suspension
func (u *User) Reactivate() error {
	if u.Status == StatusActive {
		return shared.ErrInvalidState.WithMessage("User is already active")
	}
	u.Status = StatusActive
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	u.Touch()
	u.IncrementVersion()
	u.AddDomainEvent(NewUserStatusChangedEvent(u))
	return nil
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsActive reports whether the account is active
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

func validateDisplayName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < 1 || n > 50 {
		return shared.NewDomainError("INVALID_DISPLAY_NAME", "Display name must be 1 to 50 characters")
	}
	return nil
}

func validateWebsite(website string) error {
	if website == "" {
		return nil
	}
	if len(website) > 200 {
		return shared.NewDomainError("INVALID_WEBSITE", "Website cannot exceed 200 characters")
	}
	parsed, err := url.Parse(website)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return shared.NewDomainError("INVALID_WEBSITE", "Website must be an http or https URL")
	}
	return nil
}
