package hireqa

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// VerifyEmailMessage consumes an email verification token.
type VerifyEmailMessage struct {
	Token      string `json:"token" doc:"Opaque verification token from the emailed link"`
	OnResponse func(*VerifyEmailResponse)
}

func (e VerifyEmailMessage) Type() string { return "account.verify_email" }

// VerifyEmailResponse reports the verified account. AlreadyVerified is set
// when the account was verified before this call; the outcome is still a
// success.
type VerifyEmailResponse struct {
	Email           string `json:"email"`
	AlreadyVerified bool   `json:"already_verified"`
}

// VerifyEmailHandler resolves a token to its account and flips the account
// to verified. The consume is a single conditional update, so two racing
// requests with the same token cannot both win.
type VerifyEmailHandler struct {
	repo     RepositoryManager
	clock    Clock
	activity ActivitySink
	logger   Logger
}

func NewVerifyEmailHandler(repo RepositoryManager) *VerifyEmailHandler {
	return &VerifyEmailHandler{
		repo:     repo,
		clock:    SystemClock,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

func (h *VerifyEmailHandler) WithClock(clock Clock) *VerifyEmailHandler {
	if clock != nil {
		h.clock = clock
	}
	return h
}

func (h *VerifyEmailHandler) WithActivitySink(sink ActivitySink) *VerifyEmailHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *VerifyEmailHandler) WithLogger(logger Logger) *VerifyEmailHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *VerifyEmailHandler) Execute(ctx context.Context, event VerifyEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyEmailHandler) execute(ctx context.Context, event VerifyEmailMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if event.Token == "" {
		return ErrInvalidVerificationToken
	}

	account, err := h.repo.Accounts().GetByVerificationToken(ctx, event.Token)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			// token never existed, was consumed already, or was rotated out.
			// No detail leaks about which.
			return ErrInvalidVerificationToken
		}
		return NewPersistenceError(err, "failed to look up verification token")
	}

	if account.EmailVerified {
		h.respond(event, account, true)
		return nil
	}

	if account.TokenExpired(h.clock.Now()) {
		h.recordActivity(ctx, ActivityEventVerificationFailure, account.ID.String(), map[string]any{
			"reason": "token_expired",
		})
		return ErrVerificationTokenExpired
	}

	account, err = h.repo.Accounts().MarkVerified(ctx, event.Token, h.clock.Now())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			// the conditional update matched no row: a racing request
			// consumed the token first
			return ErrInvalidVerificationToken
		}
		return NewPersistenceError(err, "failed to mark account verified")
	}

	h.recordActivity(ctx, ActivityEventEmailVerified, account.ID.String(), nil)

	h.respond(event, account, false)
	return nil
}

func (h *VerifyEmailHandler) respond(event VerifyEmailMessage, account *Account, already bool) {
	if event.OnResponse != nil {
		event.OnResponse(&VerifyEmailResponse{
			Email:           account.Email,
			AlreadyVerified: already,
		})
	}
}

func (h *VerifyEmailHandler) recordActivity(ctx context.Context, eventType ActivityEventType, accountID string, metadata map[string]any) {
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
