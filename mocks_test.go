package hireqa_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	hireqa "github.com/ms-hireqa/hireqa-backend"
	"github.com/stretchr/testify/mock"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// fixedClock pins time for expiry assertions
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// MockAccounts implements hireqa.Accounts
type MockAccounts struct {
	mock.Mock
}

func (m *MockAccounts) GetByEmail(ctx context.Context, email string) (*hireqa.Account, error) {
	args := m.Called(ctx, email)
	account, _ := args.Get(0).(*hireqa.Account)
	return account, args.Error(1)
}

func (m *MockAccounts) GetByUsername(ctx context.Context, username string) (*hireqa.Account, error) {
	args := m.Called(ctx, username)
	account, _ := args.Get(0).(*hireqa.Account)
	return account, args.Error(1)
}

func (m *MockAccounts) GetByVerificationToken(ctx context.Context, token string) (*hireqa.Account, error) {
	args := m.Called(ctx, token)
	account, _ := args.Get(0).(*hireqa.Account)
	return account, args.Error(1)
}

func (m *MockAccounts) Create(ctx context.Context, record *hireqa.Account) (*hireqa.Account, error) {
	args := m.Called(ctx, record)
	account, _ := args.Get(0).(*hireqa.Account)
	return account, args.Error(1)
}

func (m *MockAccounts) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAccounts) MarkVerified(ctx context.Context, token string, at time.Time) (*hireqa.Account, error) {
	args := m.Called(ctx, token, at)
	account, _ := args.Get(0).(*hireqa.Account)
	return account, args.Error(1)
}

func (m *MockAccounts) RotateVerificationToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) (*hireqa.Account, error) {
	args := m.Called(ctx, id, token, expiresAt)
	account, _ := args.Get(0).(*hireqa.Account)
	return account, args.Error(1)
}

func (m *MockAccounts) TrackSuccessfulLogin(ctx context.Context, account *hireqa.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

// MockPersonalDetails implements hireqa.PersonalDetailsStore
type MockPersonalDetails struct {
	mock.Mock
}

func (m *MockPersonalDetails) Create(ctx context.Context, record *hireqa.PersonalDetails) (*hireqa.PersonalDetails, error) {
	args := m.Called(ctx, record)
	details, _ := args.Get(0).(*hireqa.PersonalDetails)
	return details, args.Error(1)
}

func (m *MockPersonalDetails) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*hireqa.PersonalDetails, error) {
	args := m.Called(ctx, accountID)
	details, _ := args.Get(0).(*hireqa.PersonalDetails)
	return details, args.Error(1)
}

// MockRepositoryManager implements hireqa.RepositoryManager
type MockRepositoryManager struct {
	accounts        *MockAccounts
	personalDetails *MockPersonalDetails
}

func newMockRepositoryManager() *MockRepositoryManager {
	return &MockRepositoryManager{
		accounts:        &MockAccounts{},
		personalDetails: &MockPersonalDetails{},
	}
}

func (m *MockRepositoryManager) Validate(ctx context.Context) error { return nil }

func (m *MockRepositoryManager) MustValidate(ctx context.Context) {}

func (m *MockRepositoryManager) Accounts() hireqa.Accounts {
	return m.accounts
}

func (m *MockRepositoryManager) PersonalDetails() hireqa.PersonalDetailsStore {
	return m.personalDetails
}

// MockActivitySink records events for assertions
type MockActivitySink struct {
	events []hireqa.ActivityEvent
}

func (m *MockActivitySink) Record(ctx context.Context, event hireqa.ActivityEvent) error {
	m.events = append(m.events, event)
	return nil
}

func (m *MockActivitySink) eventTypes() []hireqa.ActivityEventType {
	types := make([]hireqa.ActivityEventType, 0, len(m.events))
	for _, event := range m.events {
		types = append(types, event.EventType)
	}
	return types
}

// recordingDispatcher captures outbound email without sending.
type recordingDispatcher struct {
	recipients []string
	tokens     []string
	result     hireqa.Delivery
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{result: hireqa.Delivery{Delivered: true}}
}

func (d *recordingDispatcher) SendVerificationEmail(ctx context.Context, recipient, firstName, token string) hireqa.Delivery {
	d.recipients = append(d.recipients, recipient)
	d.tokens = append(d.tokens, token)
	return d.result
}
