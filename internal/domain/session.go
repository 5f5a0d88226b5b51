package domain

import "time"

// Identity represents an authenticated user identity from the identity provider.
type Identity struct {
	UserID    string
	Email     string
	SessionID string
	CreatedAt time.Time
}

// Claims returns the identity as a principal claim set.
func (i *Identity) Claims() Principal {
	p := Principal{{Type: ClaimSubject, Value: i.UserID}}
	if i.Email != "" {
		p = append(p, Claim{Type: ClaimEmail, Value: i.Email})
	}
	if i.SessionID != "" {
		p = append(p, Claim{Type: ClaimSessionID, Value: i.SessionID})
	}
	return p
}

// CachedSession holds validated session data stored in the identity cache.
type CachedSession struct {
	UserID    string
	Email     string
	CreatedAt time.Time
}

// Session is a read view over the key/value data attached to one login session.
type Session interface {
	GetString(key string) (string, bool)
}

// SessionKeyAccessToken is the session key holding the bearer token.
const SessionKeyAccessToken = "AccessToken"
