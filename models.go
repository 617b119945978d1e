package hireqa

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RoleType is the kind of registrant an account represents
type RoleType = string

const (
	// RoleJobseeker is a candidate looking for work
	RoleJobseeker RoleType = "jobseeker"
	// RoleRecruiter posts and manages openings
	RoleRecruiter RoleType = "recruiter"
	// RoleAdmin is portal staff
	RoleAdmin RoleType = "admin"
)

// Gender values accepted on personal details
type Gender = string

const (
	GenderMale           Gender = "male"
	GenderFemale         Gender = "female"
	GenderOther          Gender = "other"
	GenderPreferNotToSay Gender = "prefer_not_to_say"
)

// Account is the registrant's credential and profile record. The password
// hash and verification token never serialize into responses.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acct"`

	ID                 uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"account_id,omitempty"`
	RoleType           RoleType   `bun:"role_type,notnull" json:"role_type,omitempty"`
	FirstName          string     `bun:"first_name,notnull" json:"first_name,omitempty"`
	MiddleName         string     `bun:"middle_name" json:"middle_name,omitempty"`
	LastName           string     `bun:"last_name,notnull" json:"last_name,omitempty"`
	Username           string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email              string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone              string     `bun:"phone_number" json:"phone_number,omitempty"`
	CurrentJobLocation string     `bun:"current_job_location" json:"current_job_location,omitempty"`
	AcceptedTerms      bool       `bun:"accepted_terms,notnull" json:"accepted_terms"`
	PasswordHash       string     `bun:"password_hash" json:"-"`
	EmailVerified      bool       `bun:"is_email_verified,notnull" json:"is_email_verified"`
	VerificationToken  *string    `bun:"verification_token,nullzero,unique" json:"-"`
	TokenExpiresAt     *time.Time `bun:"verification_token_expires_at,nullzero" json:"-"`
	VerifiedAt         *time.Time `bun:"verified_at,nullzero" json:"verified_at,omitempty"`
	LoggedInAt         *time.Time `bun:"logged_in_at,nullzero" json:"logged_in_at,omitempty"`
	CreatedAt          *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt          *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt          *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

// HasActiveToken reports whether an unconsumed verification token is stored.
// Invariant: true only while the account is unverified.
func (a *Account) HasActiveToken() bool {
	return !a.EmailVerified && a.VerificationToken != nil && *a.VerificationToken != ""
}

// TokenExpired reports whether the stored token expiry is behind now. A
// missing expiry counts as expired so half-written rows never verify.
func (a *Account) TokenExpired(now time.Time) bool {
	if a.TokenExpiresAt == nil {
		return true
	}
	return a.TokenExpiresAt.Before(now)
}

// PersonalDetails is the demographic record created as the second step of
// signup, keyed 1:1 to its account.
type PersonalDetails struct {
	bun.BaseModel `bun:"table:personal_details,alias:pd"`

	ID          uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AccountID   uuid.UUID  `bun:"account_id,notnull,unique,type:uuid" json:"account_id,omitempty"`
	Account     *Account   `bun:"rel:belongs-to,join:account_id=id" json:"account,omitempty"`
	DateOfBirth time.Time  `bun:"date_of_birth,notnull" json:"date_of_birth,omitempty"`
	Gender      Gender     `bun:"gender,notnull" json:"gender,omitempty"`
	CreatedAt   *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt   *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}
