package hireqa_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	hireqa "github.com/ms-hireqa/hireqa-backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const strongPassword = "brisket-Marble7-quasar-Unfold"

func validSignupMessage() hireqa.SignupMessage {
	return hireqa.SignupMessage{
		FirstName:     "Meera",
		LastName:      "Swaminathan",
		Username:      "meeras",
		Email:         "meera@example.com",
		Phone:         "+14155552671",
		RoleType:      hireqa.RoleJobseeker,
		Location:      "Austin, TX",
		DateOfBirth:   "1994-05-21",
		Gender:        hireqa.GenderFemale,
		Password:      strongPassword,
		AcceptedTerms: true,
	}
}

func notFoundErr() error {
	return repository.NewRecordNotFound()
}

func TestSignupSuccess(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepositoryManager()
	dispatcher := newRecordingDispatcher()
	sink := &MockActivitySink{}
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	accountID := uuid.New()

	repo.accounts.On("GetByEmail", mock.Anything, "meera@example.com").Return(nil, notFoundErr())
	repo.accounts.On("GetByUsername", mock.Anything, "meeras").Return(nil, notFoundErr())
	repo.accounts.On("Create", mock.Anything, mock.MatchedBy(func(a *hireqa.Account) bool {
		return a.Email == "meera@example.com" &&
			a.PasswordHash != "" &&
			a.PasswordHash != strongPassword &&
			!a.EmailVerified &&
			a.HasActiveToken() &&
			a.TokenExpiresAt != nil &&
			a.TokenExpiresAt.Equal(now.Add(24*time.Hour))
	})).Return(&hireqa.Account{
		ID:                accountID,
		Email:             "meera@example.com",
		FirstName:         "Meera",
		VerificationToken: strPtr("issued-token"),
	}, nil)
	repo.personalDetails.On("Create", mock.Anything, mock.MatchedBy(func(d *hireqa.PersonalDetails) bool {
		return d.AccountID == accountID &&
			d.Gender == hireqa.GenderFemale &&
			d.DateOfBirth.Equal(time.Date(1994, 5, 21, 0, 0, 0, 0, time.UTC))
	})).Return(&hireqa.PersonalDetails{AccountID: accountID}, nil)

	var response *hireqa.SignupResponse
	msg := validSignupMessage()
	msg.OnResponse = func(r *hireqa.SignupResponse) { response = r }

	handler := hireqa.NewSignupHandler(repo, dispatcher).
		WithClock(fixedClock{now: now}).
		WithActivitySink(sink).
		WithLogger(testLogger{})

	err := handler.Execute(ctx, msg)
	require.NoError(t, err)

	require.NotNil(t, response)
	assert.Equal(t, accountID, response.AccountID)
	assert.True(t, response.EmailSent)

	require.Len(t, dispatcher.recipients, 1)
	assert.Equal(t, "meera@example.com", dispatcher.recipients[0])
	assert.NotEmpty(t, dispatcher.tokens[0])

	assert.Contains(t, sink.eventTypes(), hireqa.ActivityEventSignupSuccess)

	repo.accounts.AssertExpectations(t)
	repo.personalDetails.AssertExpectations(t)
}

func TestSignupWeakPasswordTouchesNothing(t *testing.T) {
	repo := newMockRepositoryManager()
	dispatcher := newRecordingDispatcher()

	msg := validSignupMessage()
	msg.Password = "password1"

	handler := hireqa.NewSignupHandler(repo, dispatcher).WithLogger(testLogger{})

	err := handler.Execute(context.Background(), msg)
	require.Error(t, err)
	assert.True(t, hireqa.HasTextCode(err, hireqa.TextCodeWeakPassword))

	repo.accounts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	repo.accounts.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
	repo.personalDetails.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Empty(t, dispatcher.recipients)
}

func TestSignupDuplicatePrechecks(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(repo *MockRepositoryManager)
		wantCode string
	}{
		{
			name: "Duplicate email",
			setup: func(repo *MockRepositoryManager) {
				repo.accounts.On("GetByEmail", mock.Anything, mock.Anything).
					Return(&hireqa.Account{Email: "meera@example.com"}, nil)
			},
			wantCode: hireqa.TextCodeDuplicateEmail,
		},
		{
			name: "Duplicate username",
			setup: func(repo *MockRepositoryManager) {
				repo.accounts.On("GetByEmail", mock.Anything, mock.Anything).
					Return(nil, notFoundErr())
				repo.accounts.On("GetByUsername", mock.Anything, mock.Anything).
					Return(&hireqa.Account{Username: "meeras"}, nil)
			},
			wantCode: hireqa.TextCodeDuplicateUsername,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepositoryManager()
			tt.setup(repo)

			handler := hireqa.NewSignupHandler(repo, newRecordingDispatcher()).
				WithLogger(testLogger{})

			err := handler.Execute(context.Background(), validSignupMessage())
			require.Error(t, err)
			assert.True(t, hireqa.HasTextCode(err, tt.wantCode))

			repo.accounts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestSignupInvalidDate(t *testing.T) {
	repo := newMockRepositoryManager()
	repo.accounts.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, notFoundErr())
	repo.accounts.On("GetByUsername", mock.Anything, mock.Anything).Return(nil, notFoundErr())

	msg := validSignupMessage()
	msg.DateOfBirth = "21-05-1994"

	handler := hireqa.NewSignupHandler(repo, newRecordingDispatcher()).
		WithLogger(testLogger{})

	err := handler.Execute(context.Background(), msg)
	require.Error(t, err)
	assert.True(t, hireqa.HasTextCode(err, hireqa.TextCodeInvalidDate))
	repo.accounts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSignupUniqueConstraintRace(t *testing.T) {
	repo := newMockRepositoryManager()
	repo.accounts.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, notFoundErr())
	repo.accounts.On("GetByUsername", mock.Anything, mock.Anything).Return(nil, notFoundErr())
	repo.accounts.On("Create", mock.Anything, mock.Anything).
		Return(nil, errors.New("UNIQUE constraint failed: accounts.email"))

	handler := hireqa.NewSignupHandler(repo, newRecordingDispatcher()).
		WithLogger(testLogger{})

	err := handler.Execute(context.Background(), validSignupMessage())
	require.Error(t, err)
	assert.True(t, hireqa.HasTextCode(err, hireqa.TextCodeDuplicateEmail))

	repo.personalDetails.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSignupRollsBackAccountWhenDetailsFail(t *testing.T) {
	repo := newMockRepositoryManager()
	sink := &MockActivitySink{}
	accountID := uuid.New()

	repo.accounts.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, notFoundErr())
	repo.accounts.On("GetByUsername", mock.Anything, mock.Anything).Return(nil, notFoundErr())
	repo.accounts.On("Create", mock.Anything, mock.Anything).
		Return(&hireqa.Account{ID: accountID, Email: "meera@example.com"}, nil)
	repo.personalDetails.On("Create", mock.Anything, mock.Anything).
		Return(nil, errors.New("disk I/O error"))
	repo.accounts.On("Delete", mock.Anything, accountID).Return(nil)

	dispatcher := newRecordingDispatcher()
	handler := hireqa.NewSignupHandler(repo, dispatcher).
		WithActivitySink(sink).
		WithLogger(testLogger{})

	err := handler.Execute(context.Background(), validSignupMessage())
	require.Error(t, err)
	assert.True(t, hireqa.HasTextCode(err, hireqa.TextCodePersistence))

	repo.accounts.AssertCalled(t, "Delete", mock.Anything, accountID)
	assert.Contains(t, sink.eventTypes(), hireqa.ActivityEventSignupRollback)
	assert.Empty(t, dispatcher.recipients)
}

func TestSignupOrphanWhenRollbackFails(t *testing.T) {
	repo := newMockRepositoryManager()
	sink := &MockActivitySink{}
	accountID := uuid.New()

	repo.accounts.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, notFoundErr())
	repo.accounts.On("GetByUsername", mock.Anything, mock.Anything).Return(nil, notFoundErr())
	repo.accounts.On("Create", mock.Anything, mock.Anything).
		Return(&hireqa.Account{ID: accountID, Email: "meera@example.com"}, nil)
	repo.personalDetails.On("Create", mock.Anything, mock.Anything).
		Return(nil, errors.New("disk I/O error"))
	repo.accounts.On("Delete", mock.Anything, accountID).
		Return(errors.New("database is locked"))

	handler := hireqa.NewSignupHandler(repo, newRecordingDispatcher()).
		WithActivitySink(sink).
		WithLogger(testLogger{})

	err := handler.Execute(context.Background(), validSignupMessage())
	require.Error(t, err)
	assert.True(t, hireqa.HasTextCode(err, hireqa.TextCodePersistence))

	var rollback *hireqa.ActivityEvent
	for i := range sink.events {
		if sink.events[i].EventType == hireqa.ActivityEventSignupRollback {
			rollback = &sink.events[i]
		}
	}
	require.NotNil(t, rollback)
	assert.Equal(t, true, rollback.Metadata["orphaned"])
}

func TestSignupEmailFailureIsNotFatal(t *testing.T) {
	repo := newMockRepositoryManager()
	accountID := uuid.New()

	repo.accounts.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, notFoundErr())
	repo.accounts.On("GetByUsername", mock.Anything, mock.Anything).Return(nil, notFoundErr())
	repo.accounts.On("Create", mock.Anything, mock.Anything).
		Return(&hireqa.Account{ID: accountID, Email: "meera@example.com"}, nil)
	repo.personalDetails.On("Create", mock.Anything, mock.Anything).
		Return(&hireqa.PersonalDetails{AccountID: accountID}, nil)

	dispatcher := newRecordingDispatcher()
	dispatcher.result = hireqa.Delivery{Delivered: false, Detail: "smtp unreachable"}

	var response *hireqa.SignupResponse
	msg := validSignupMessage()
	msg.OnResponse = func(r *hireqa.SignupResponse) { response = r }

	handler := hireqa.NewSignupHandler(repo, dispatcher).WithLogger(testLogger{})

	err := handler.Execute(context.Background(), msg)
	require.NoError(t, err)

	require.NotNil(t, response)
	assert.False(t, response.EmailSent)
	assert.Equal(t, "smtp unreachable", response.EmailDetail)
}

func TestSignupDeterministicID(t *testing.T) {
	repo := newMockRepositoryManager()
	accountID := uuid.New()

	expected, err := hashid.NewUUID("meera@example.com")
	require.NoError(t, err)

	repo.accounts.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, notFoundErr())
	repo.accounts.On("GetByUsername", mock.Anything, mock.Anything).Return(nil, notFoundErr())
	repo.accounts.On("Create", mock.Anything, mock.MatchedBy(func(a *hireqa.Account) bool {
		return a.ID == expected
	})).Return(&hireqa.Account{ID: accountID, Email: "meera@example.com"}, nil)
	repo.personalDetails.On("Create", mock.Anything, mock.Anything).
		Return(&hireqa.PersonalDetails{AccountID: accountID}, nil)

	msg := validSignupMessage()
	msg.UseHashid = true

	handler := hireqa.NewSignupHandler(repo, newRecordingDispatcher()).
		WithLogger(testLogger{})

	require.NoError(t, handler.Execute(context.Background(), msg))
	repo.accounts.AssertExpectations(t)
}

func TestSignupCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	handler := hireqa.NewSignupHandler(newMockRepositoryManager(), newRecordingDispatcher()).
		WithLogger(testLogger{})

	err := handler.Execute(ctx, validSignupMessage())
	assert.Error(t, err)
}

func strPtr(s string) *string { return &s }
