package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"profile-hub/internal/domain"

	kratos "github.com/ory/kratos-client-go"
)

// whoamiTimeout bounds a single session lookup regardless of the client timeout.
const whoamiTimeout = 3 * time.Second

// KratosGateway implements domain.SessionValidator.
type KratosGateway struct {
	client *kratos.APIClient
}

// NewKratosGateway creates a new Kratos gateway with tuned HTTP transport.
func NewKratosGateway(baseURL string, timeout time.Duration) *KratosGateway {
	configuration := kratos.NewConfiguration()
	configuration.Servers = []kratos.ServerConfiguration{
		{URL: baseURL},
	}
	configuration.HTTPClient = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &KratosGateway{client: kratos.NewAPIClient(configuration)}
}

// ValidateSession resolves a session cookie header value to the identity it
// belongs to.
func (g *KratosGateway) ValidateSession(ctx context.Context, cookie string) (*domain.Identity, error) {
	if cookie == "" {
		return nil, domain.ErrSessionNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, whoamiTimeout)
	defer cancel()

	session, resp, err := g.client.FrontendAPI.ToSession(ctx).Cookie(cookie).Execute()
	if err != nil {
		if resp != nil {
			switch resp.StatusCode {
			case http.StatusUnauthorized:
				return nil, domain.ErrAuthFailed
			case http.StatusForbidden:
				return nil, domain.ErrSessionInactive
			}
			return nil, fmt.Errorf("%w: kratos returned status %d", domain.ErrKratosUnavailable, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrKratosUnavailable, err)
	}

	if session.Active != nil && !*session.Active {
		return nil, domain.ErrSessionInactive
	}
	if session.ExpiresAt != nil && session.ExpiresAt.Before(time.Now()) {
		return nil, domain.ErrSessionExpired
	}
	if session.Identity == nil || session.Identity.Id == "" {
		return nil, domain.ErrMissingIdentity
	}

	var createdAt time.Time
	if session.Identity.CreatedAt != nil {
		createdAt = *session.Identity.CreatedAt
	}

	return &domain.Identity{
		UserID:    session.Identity.Id,
		Email:     traitEmail(session.Identity.Traits),
		SessionID: session.Id,
		CreatedAt: createdAt,
	}, nil
}

func traitEmail(traits interface{}) string {
	m, ok := traits.(map[string]interface{})
	if !ok {
		return ""
	}
	email, _ := m["email"].(string)
	return email
}
