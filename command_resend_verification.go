package hireqa

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// ResendVerificationMessage requests a fresh verification email for an
// unverified account.
type ResendVerificationMessage struct {
	Email      string `json:"email_id"`
	OnResponse func(*ResendVerificationResponse)
}

func (e ResendVerificationMessage) Type() string { return "account.resend_verification" }

// ResendVerificationResponse reports the dispatch outcome for the rotated
// token.
type ResendVerificationResponse struct {
	Email       string `json:"email"`
	EmailSent   bool   `json:"email_sent"`
	EmailDetail string `json:"email_message,omitempty"`
}

// ResendVerificationHandler rotates the stored verification token and sends
// it out again. Rotation invalidates any previously emailed link.
type ResendVerificationHandler struct {
	repo     RepositoryManager
	mailer   EmailDispatcher
	clock    Clock
	activity ActivitySink
	logger   Logger
}

func NewResendVerificationHandler(repo RepositoryManager, mailer EmailDispatcher) *ResendVerificationHandler {
	return &ResendVerificationHandler{
		repo:     repo,
		mailer:   mailer,
		clock:    SystemClock,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

func (h *ResendVerificationHandler) WithClock(clock Clock) *ResendVerificationHandler {
	if clock != nil {
		h.clock = clock
	}
	return h
}

func (h *ResendVerificationHandler) WithActivitySink(sink ActivitySink) *ResendVerificationHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *ResendVerificationHandler) WithLogger(logger Logger) *ResendVerificationHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ResendVerificationHandler) Execute(ctx context.Context, event ResendVerificationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during verification resend",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResendVerificationHandler) execute(ctx context.Context, event ResendVerificationMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	account, err := h.repo.Accounts().GetByEmail(ctx, event.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrAccountNotFound
		}
		return NewPersistenceError(err, "failed to look up account")
	}

	if account.EmailVerified {
		return ErrAlreadyVerified
	}

	token, err := NewVerificationToken()
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue verification token")
	}
	expiresAt := VerificationTokenExpiry(h.clock)

	account, err = h.repo.Accounts().RotateVerificationToken(ctx, account.ID, token, expiresAt)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			// the account verified between lookup and rotation
			return ErrAlreadyVerified
		}
		return NewPersistenceError(err, "failed to rotate verification token")
	}

	delivery := h.mailer.SendVerificationEmail(ctx, account.Email, account.FirstName, token)
	if !delivery.Delivered {
		h.logger.Warn("verification email dispatch failed for account %s: %s",
			account.ID.String(), delivery.Detail)
	}

	h.recordActivity(ctx, ActivityEventVerificationResent, account.ID.String(), map[string]any{
		"email_sent": delivery.Delivered,
	})

	if event.OnResponse != nil {
		event.OnResponse(&ResendVerificationResponse{
			Email:       account.Email,
			EmailSent:   delivery.Delivered,
			EmailDetail: delivery.Detail,
		})
	}

	return nil
}

func (h *ResendVerificationHandler) recordActivity(ctx context.Context, eventType ActivityEventType, accountID string, metadata map[string]any) {
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
