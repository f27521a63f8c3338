package flow

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tourneyarena/arena-auth/dispatch"
	"github.com/tourneyarena/arena-auth/domain"
	"github.com/tourneyarena/arena-auth/identity"
	"github.com/tourneyarena/arena-auth/session"
)

// Service orchestrates OTP issuance, verification-triggered registration,
// login and session-token issuance.
type Service struct {
	store            domain.Storage
	sessions         *session.Manager
	dispatcher       dispatch.Dispatcher
	discloseFallback bool
	now              func() time.Time
}

// NewService wires the authentication service. discloseFallback controls
// whether a code that could not be delivered by mail is echoed back to the
// client instead.
func NewService(store domain.Storage, sessions *session.Manager, d dispatch.Dispatcher, discloseFallback bool) *Service {
	return &Service{
		store:            store,
		sessions:         sessions,
		dispatcher:       d,
		discloseFallback: discloseFallback,
		now:              time.Now,
	}
}

// OTPIssue reports the result of an OTP request. Code is set only when the
// service decided to disclose it to the client.
type OTPIssue struct {
	Outcome dispatch.Outcome
	Code    string
}

// AuthResult pairs a freshly issued session token with its account.
type AuthResult struct {
	Account *identity.Account
	Token   string
}

// RequestOTP issues a new one-time code for email, superseding any prior
// outstanding code, and attempts delivery. The code is persisted before
// dispatch is attempted, so a failed or skipped dispatch never aborts
// issuance.
func (s *Service) RequestOTP(ctx context.Context, email string) (*OTPIssue, error) {
	email = identity.NormalizeEmail(email)
	if email == "" {
		return nil, ErrInvalidInput
	}

	rec := identity.NewOTPRecord(email, s.now())
	if err := s.store.ReplaceOTP(rec); err != nil {
		return nil, err
	}

	outcome := s.dispatcher.Send(ctx, email, rec.Code)

	issue := &OTPIssue{Outcome: outcome}
	if outcome != dispatch.OutcomeDelivered && s.discloseFallback {
		issue.Code = rec.Code
	}
	return issue, nil
}

// VerifyAndRegister consumes the code for email and, when it validates,
// creates the account and issues a session token.
func (s *Service) VerifyAndRegister(ctx context.Context, name, email, credential, code string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = identity.NormalizeEmail(email)
	if name == "" || email == "" || credential == "" || code == "" {
		return nil, ErrMissingFields
	}

	ok, err := s.store.ConsumeOTP(email, code, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidOTP
	}

	if _, err := s.store.GetAccountByEmail(email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	existing, err := s.store.ListProfileIDs()
	if err != nil {
		return nil, err
	}

	account := &identity.Account{
		ID:               uuid.New().String(),
		ProfileID:        identity.NewProfileID(existing),
		Name:             name,
		Email:            email,
		CredentialSecret: credential,
		CreatedAt:        s.now(),
	}

	if err := s.store.CreateAccount(account); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	token, err := s.sessions.Issue(account.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{Account: account, Token: token}, nil
}

// Login authenticates email/credential and issues a session token. Lookup
// miss and secret mismatch are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, credential string) (*AuthResult, error) {
	email = identity.NormalizeEmail(email)
	if email == "" || credential == "" {
		return nil, ErrInvalidCredentials
	}

	account, err := s.store.GetAccountByEmail(email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if account.CredentialSecret != credential {
		return nil, ErrInvalidCredentials
	}

	token, err := s.sessions.Issue(account.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{Account: account, Token: token}, nil
}

// GetProfile returns the public view of the account behind accountID.
func (s *Service) GetProfile(ctx context.Context, accountID string) (*identity.Profile, error) {
	account, err := s.store.GetAccountByID(accountID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	profile := account.Profile()
	return &profile, nil
}

// ListAccounts returns every registered account. Administrative use only.
func (s *Service) ListAccounts(ctx context.Context) ([]identity.Account, error) {
	return s.store.ListAccounts()
}

// DeleteAccount removes an account by internal id. Administrative use only.
func (s *Service) DeleteAccount(ctx context.Context, id string) error {
	return s.store.DeleteAccount(id)
}
