package broker

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"rhfetch/internal"
	"rhfetch/utils"
)

// SessionManager owns the authentication lifecycle: it exchanges
// credentials for a token (resolving an MFA challenge when the server
// requests one), tracks expiry, and persists/reloads the session.
//
// An in-flight authentication is exclusive: the mutex serializes every
// write to the session, while readers take an immutable snapshot via the
// atomic pointer and never block.
type SessionManager struct {
	config *internal.Config
	http   *utils.HTTPClient
	store  internal.SessionStore

	mu      sync.Mutex
	session atomic.Pointer[internal.Session]

	// lastPassword is retained only when the config opts into persisting
	// it with the saved record; otherwise credentials are wiped as soon as
	// a token exists.
	lastPassword string

	// test seams
	now            func() time.Time
	promptPassword func() (string, error)
}

// NewSessionManager creates a session manager using the given transport
// and persistence store
func NewSessionManager(config *internal.Config, httpClient *utils.HTTPClient, store internal.SessionStore) *SessionManager {
	return &SessionManager{
		config: config,
		http:   httpClient,
		store:  store,
		now:    time.Now,
		promptPassword: func() (string, error) {
			return utils.ReadSecret("Enter password: ", os.Stderr)
		},
	}
}

// tokenResponse is the token endpoint's JSON payload
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	MfaRequired bool   `json:"mfa_required"`
}

// accountsResponse is the accounts listing page
type accountsResponse struct {
	Results []struct {
		AccountNumber string `json:"account_number"`
	} `json:"results"`
}

// Authenticate exchanges credentials for a session. When the server
// requests a second factor, resolver supplies the code (the interactive
// resolver is used when resolver is nil). The returned session carries the
// token, its expiry and the account number; partial authentication is
// never exposed.
func (m *SessionManager) Authenticate(ctx context.Context, creds internal.Credentials, resolver internal.MfaResolver) (*internal.Session, error) {
	if creds.Username == "" {
		return nil, internal.NewPreconditionError("username is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if creds.Password == "" {
		password, err := m.promptPassword()
		if err != nil || password == "" {
			e := internal.NewPreconditionError("password is required")
			e.Cause = err
			return nil, e
		}
		creds.Password = password
	}

	internal.LogDebug("authenticating %s against %s", creds.Username, m.config.BaseURL)

	token, err := m.exchangeToken(ctx, creds, "")
	if err != nil {
		return nil, err
	}

	if token.MfaRequired {
		if resolver == nil {
			resolver = NewInteractiveResolver()
		}
		code, err := resolver.Resolve(ctx)
		if err != nil {
			return nil, err
		}
		// Malformed codes fail here, before any further network call
		if err := ValidateMfaCode(code); err != nil {
			return nil, err
		}

		token, err = m.exchangeToken(ctx, creds, code)
		if err != nil {
			return nil, err
		}
		if token.AccessToken == "" {
			return nil, internal.NewAuthError(0, "server rejected the MFA code")
		}
	}

	expiresAt := m.now().Add(time.Duration(token.ExpiresIn) * time.Second)

	account, err := m.fetchAccountNumber(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	session := &internal.Session{
		Username:  creds.Username,
		Token:     token.AccessToken,
		Account:   account,
		ExpiresAt: expiresAt,
	}

	if m.config.PersistPassword {
		m.lastPassword = creds.Password
	}
	creds.Wipe()

	m.session.Store(session)
	internal.LogInfo("authenticated %s, account %s, token valid until %s",
		session.Username, session.Account, session.ExpiresAt.Format(time.RFC3339))

	return m.snapshot(), nil
}

// exchangeToken submits the password grant, optionally with an MFA code
func (m *SessionManager) exchangeToken(ctx context.Context, creds internal.Credentials, mfaCode string) (*tokenResponse, error) {
	form := url.Values{}
	form.Set("username", creds.Username)
	form.Set("password", creds.Password)
	form.Set("client_id", m.config.ClientID)
	form.Set("grant_type", "password")
	form.Set("scope", "internal")
	if mfaCode != "" {
		form.Set("mfa_code", mfaCode)
	}

	resp, err := m.http.PostForm(ctx, m.config.BaseURL+"/oauth2/token/", form, nil)
	if err != nil {
		return nil, err
	}

	status, body, err := utils.ReadResponse(resp)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, internal.NewAuthError(status, utils.ServerMessage(body))
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, internal.NewInvalidResponseError(status, "malformed token response")
	}
	if !token.MfaRequired && token.AccessToken == "" {
		return nil, internal.NewInvalidResponseError(status, "token endpoint returned no access token")
	}
	return &token, nil
}

// fetchAccountNumber resolves the account number for a fresh token
func (m *SessionManager) fetchAccountNumber(ctx context.Context, token string) (string, error) {
	resp, err := m.http.Get(ctx, m.config.BaseURL+"/accounts/", utils.BearerHeaders(token))
	if err != nil {
		return "", err
	}

	status, body, err := utils.ReadResponse(resp)
	if err != nil {
		return "", err
	}
	if status == 401 || status == 403 {
		return "", internal.NewAuthError(status, utils.ServerMessage(body))
	}
	if status < 200 || status >= 300 {
		return "", internal.NewInvalidResponseError(status, utils.ServerMessage(body))
	}

	var accounts accountsResponse
	if err := json.Unmarshal(body, &accounts); err != nil {
		return "", internal.NewInvalidResponseError(status, "malformed accounts response")
	}
	if len(accounts.Results) == 0 || accounts.Results[0].AccountNumber == "" {
		return "", internal.NewInvalidResponseError(status, "accounts listing carried no account number")
	}
	return accounts.Results[0].AccountNumber, nil
}

// Logout invalidates the remote token and deletes the persisted record
func (m *SessionManager) Logout(ctx context.Context) error {
	session := m.session.Load()
	if session == nil || session.Token == "" {
		return internal.NewPreconditionError("no active session to log out")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	resp, err := m.http.PostForm(ctx, m.config.BaseURL+"/api-token-logout/", url.Values{}, utils.BearerHeaders(session.Token))
	if err != nil {
		return err
	}

	status, body, err := utils.ReadResponse(resp)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return internal.NewAuthError(status, utils.ServerMessage(body))
	}

	if err := m.store.Delete(); err != nil {
		return err
	}

	m.session.Store(nil)
	m.lastPassword = ""
	internal.LogInfo("logged out %s", session.Username)
	return nil
}

// Save persists the current session. Saving an invalid session is a
// precondition failure and leaves any existing record untouched.
func (m *SessionManager) Save() error {
	session := m.snapshot()
	if session == nil || session.Token == "" || !m.now().Before(session.ExpiresAt) {
		return internal.NewPreconditionError("cannot save an unauthenticated or expired session")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	record := &internal.SessionRecord{
		Username: session.Username,
		Token:    session.Token,
		Account:  session.Account,
		Expires:  session.ExpiresAt,
	}
	if m.config.PersistPassword {
		record.Password = m.lastPassword
	}

	if err := m.store.Save(record); err != nil {
		return err
	}
	internal.LogDebug("session saved to %s", m.store.Path())
	return nil
}

// Load reconstructs the session from the persisted record. A stale record
// is a SessionExpired failure; Load never re-authenticates and performs no
// server-side validation.
func (m *SessionManager) Load() (*internal.Session, error) {
	record, err := m.store.Load()
	if err != nil {
		return nil, err
	}

	if !m.now().Before(record.Expires) {
		return nil, internal.NewSessionExpiredError(record.Expires)
	}

	session := &internal.Session{
		Username:  record.Username,
		Token:     record.Token,
		Account:   record.Account,
		ExpiresAt: record.Expires,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.config.PersistPassword {
		m.lastPassword = record.Password
	}
	m.session.Store(session)
	return m.snapshot(), nil
}

// Session returns an immutable snapshot of the current session, or nil
// when no authentication has happened
func (m *SessionManager) Session() *internal.Session {
	return m.snapshot()
}

// IsAuthenticated reports whether a token is present and unexpired
func (m *SessionManager) IsAuthenticated() bool {
	session := m.session.Load()
	return session != nil && session.Token != "" && m.now().Before(session.ExpiresAt)
}

// snapshot copies the current session so callers never share mutable state
func (m *SessionManager) snapshot() *internal.Session {
	session := m.session.Load()
	if session == nil {
		return nil
	}
	copied := *session
	return &copied
}
