package hireqa

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// SignupMessage carries the jobseeker registration payload. Field names
// mirror the public signup form.
type SignupMessage struct {
	FirstName     string `json:"first_name"`
	MiddleName    string `json:"middle_name"`
	LastName      string `json:"last_name"`
	Username      string `json:"username"`
	Email         string `json:"email_id"`
	Phone         string `json:"phone_number"`
	RoleType      string `json:"role_type"`
	Location      string `json:"location"`
	DateOfBirth   string `json:"dob" example:"1994-05-21" doc:"Date of birth, YYYY-MM-DD"`
	Gender        string `json:"gender"`
	Password      string `json:"password"`
	AcceptedTerms bool   `json:"accepted_terms_policy"`
	UseHashid     bool
	OnResponse    func(*SignupResponse)
}

func (e SignupMessage) Type() string { return "account.signup" }

// SignupResponse reports the created account and the outcome of the
// verification-email dispatch. A failed dispatch never fails the signup;
// the caller can offer a manual resend.
type SignupResponse struct {
	AccountID   uuid.UUID `json:"account_id" doc:"Identifier of the new account."`
	EmailSent   bool      `json:"email_sent" example:"true" doc:"Whether the verification email went out."`
	EmailDetail string    `json:"email_message,omitempty" doc:"Dispatch detail when delivery failed."`
}

// SignupHandler coordinates password policy, hashing, token issuance and
// the two-record write. The store offers no cross-row transaction, so a
// failed second write is undone with a compensating delete.
type SignupHandler struct {
	repo     RepositoryManager
	mailer   EmailDispatcher
	clock    Clock
	activity ActivitySink
	logger   Logger
}

// NewSignupHandler creates a handler with sane defaults.
func NewSignupHandler(repo RepositoryManager, mailer EmailDispatcher) *SignupHandler {
	return &SignupHandler{
		repo:     repo,
		mailer:   mailer,
		clock:    SystemClock,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithClock overrides the clock used for token expiry.
func (h *SignupHandler) WithClock(clock Clock) *SignupHandler {
	if clock != nil {
		h.clock = clock
	}
	return h
}

// WithActivitySink sets the sink used to emit signup events.
func (h *SignupHandler) WithActivitySink(sink ActivitySink) *SignupHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *SignupHandler) WithLogger(logger Logger) *SignupHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *SignupHandler) Execute(ctx context.Context, event SignupMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during signup",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SignupHandler) execute(ctx context.Context, event SignupMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	// policy gate runs before anything touches the store
	if err := ValidatePasswordStrength(event.Password, event.Email, event.Username, event.FirstName); err != nil {
		return err
	}

	if _, err := h.repo.Accounts().GetByEmail(ctx, event.Email); err == nil {
		return ErrDuplicateEmail
	} else if !repository.IsRecordNotFound(err) {
		return NewPersistenceError(err, "failed to check for existing email")
	}

	if _, err := h.repo.Accounts().GetByUsername(ctx, event.Username); err == nil {
		return ErrDuplicateUsername
	} else if !repository.IsRecordNotFound(err) {
		return NewPersistenceError(err, "failed to check for existing username")
	}

	dob, err := time.Parse("2006-01-02", event.DateOfBirth)
	if err != nil {
		return ErrInvalidDate
	}

	hash, err := HashPassword(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryValidation {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	token, err := NewVerificationToken()
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue verification token")
	}
	expiresAt := VerificationTokenExpiry(h.clock)

	account := &Account{
		RoleType:           roleOrDefault(event.RoleType),
		FirstName:          event.FirstName,
		MiddleName:         event.MiddleName,
		LastName:           event.LastName,
		Username:           getUsername(event.Username, event.Email),
		Email:              event.Email,
		Phone:              event.Phone,
		CurrentJobLocation: event.Location,
		AcceptedTerms:      event.AcceptedTerms,
		PasswordHash:       hash,
		EmailVerified:      false,
		VerificationToken:  &token,
		TokenExpiresAt:     &expiresAt,
	}
	if event.UseHashid {
		if id, err := hashid.NewUUID(event.Email); err == nil {
			account.ID = id
		}
	}

	account, err = h.repo.Accounts().Create(ctx, account)
	if err != nil {
		// a write the pre-check let through lost the uniqueness race;
		// the constraint is the authoritative guard
		if IsUniqueViolation(err, "email") {
			return ErrDuplicateEmail
		}
		if IsUniqueViolation(err, "username") {
			return ErrDuplicateUsername
		}
		return NewPersistenceError(err, "failed to create account")
	}

	details := &PersonalDetails{
		AccountID:   account.ID,
		DateOfBirth: dob,
		Gender:      event.Gender,
	}

	if _, err = h.repo.PersonalDetails().Create(ctx, details); err != nil {
		h.rollbackAccount(ctx, account, err)
		return NewPersistenceError(err, "failed to create personal details")
	}

	delivery := h.mailer.SendVerificationEmail(ctx, account.Email, account.FirstName, token)
	if !delivery.Delivered {
		h.logger.Warn("verification email dispatch failed for account %s: %s",
			account.ID.String(), delivery.Detail)
	}

	h.recordActivity(ctx, ActivityEventSignupSuccess, account.ID.String(), map[string]any{
		"email_sent": delivery.Delivered,
	})

	if event.OnResponse != nil {
		event.OnResponse(&SignupResponse{
			AccountID:   account.ID,
			EmailSent:   delivery.Delivered,
			EmailDetail: delivery.Detail,
		})
	}

	return nil
}

// rollbackAccount undoes the first write after the second one failed. It
// must run to completion even if the request context is already gone, so
// cancellation is stripped before the delete.
func (h *SignupHandler) rollbackAccount(ctx context.Context, account *Account, cause error) {
	ctx = context.WithoutCancel(ctx)
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := h.repo.Accounts().Delete(ctx, account.ID); err != nil {
		// an orphaned unverifiable account now exists; this needs manual
		// remediation and must never be mistaken for the primary failure
		h.logger.Error("data integrity: compensating delete failed, orphaned account %s left behind: primary=%v rollback=%v",
			account.ID.String(), cause, err)
		h.recordActivity(ctx, ActivityEventSignupRollback, account.ID.String(), map[string]any{
			"orphaned":       true,
			"primary_error":  cause.Error(),
			"rollback_error": err.Error(),
		})
		return
	}

	h.logger.Warn("signup rolled back for account %s after personal details write failed: %v",
		account.ID.String(), cause)
	h.recordActivity(ctx, ActivityEventSignupRollback, account.ID.String(), map[string]any{
		"orphaned":      false,
		"primary_error": cause.Error(),
	})
}

func (h *SignupHandler) recordActivity(ctx context.Context, eventType ActivityEventType, accountID string, metadata map[string]any) {
	event := ActivityEvent{
		EventType:  eventType,
		Actor:      ActorRef{ID: accountID, Type: "user"},
		AccountID:  accountID,
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}

	if err := h.activity.Record(ctx, event); err != nil {
		h.logger.Warn("activity sink record error: %v", err)
	}
}

func roleOrDefault(role string) RoleType {
	switch role {
	case RoleJobseeker, RoleRecruiter, RoleAdmin:
		return role
	default:
		return RoleJobseeker
	}
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}
