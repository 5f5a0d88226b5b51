package domain

// Well-known claim types.
const (
	ClaimSubject   = "sub"
	ClaimEmail     = "email"
	ClaimSessionID = "sid"
)

// Claim is a typed assertion about an authenticated principal.
type Claim struct {
	Type  string
	Value string
}

// Principal is the ordered claim set of the current user.
type Principal []Claim

// FindFirst returns the value of the first claim of the given type.
func (p Principal) FindFirst(claimType string) (string, bool) {
	for _, c := range p {
		if c.Type == claimType {
			return c.Value, true
		}
	}
	return "", false
}

// RequestContext carries the per-request collaborators an event sink may read.
// A nil Session means the session subsystem is not active for the request.
type RequestContext struct {
	Session   Session
	Principal Principal
}

// Subject returns the non-empty "sub" claim of the principal.
func (rc RequestContext) Subject() (string, bool) {
	sub, ok := rc.Principal.FindFirst(ClaimSubject)
	if !ok || sub == "" {
		return "", false
	}
	return sub, true
}

// AccessToken returns the non-empty access token held in the session.
func (rc RequestContext) AccessToken() (string, bool) {
	if rc.Session == nil {
		return "", false
	}
	token, ok := rc.Session.GetString(SessionKeyAccessToken)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}
