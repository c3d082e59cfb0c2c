package auth

import (
	"os"
	"time"
)

const (
	envUsername  = "DANKRANK_USERNAME"
	envSessionID = "DANKRANK_SESSION_ID"
	envCSRFToken = "DANKRANK_CSRF_TOKEN"
	envUserAgent = "DANKRANK_USER_AGENT"
)

// EnvironmentStore reads a single account from DANKRANK_* variables. It is
// read-only.
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment account. An empty username matches it;
// otherwise DANKRANK_USERNAME, when set, must match.
func (e *EnvironmentStore) Retrieve(username string) (*Account, error) {
	sessionID := os.Getenv(envSessionID)
	csrfToken := os.Getenv(envCSRFToken)
	if sessionID == "" || csrfToken == "" {
		return nil, ErrCredentialsNotFound
	}

	name := os.Getenv(envUsername)
	switch {
	case username == "" && name == "":
		name = "default"
	case username == "":
	case name == "":
		name = username
	case name != username:
		return nil, ErrCredentialsNotFound
	}

	return &Account{
		Username:     name,
		SessionID:    sessionID,
		CSRFToken:    csrfToken,
		UserAgent:    os.Getenv(envUserAgent),
		LastModified: time.Now(),
	}, nil
}

func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

func (e *EnvironmentStore) Delete(username string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(username string) bool {
	_, err := e.Retrieve(username)
	return err == nil
}
