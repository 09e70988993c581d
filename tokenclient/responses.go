package tokenclient

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/aeroprep/go-session-client/session"
)

// envelope is the wrapper the issuing service puts around /login and /logout
// responses.
type envelope struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Data    *tokenData `json:"data,omitempty"`
}

// tokenData is the token payload shared by /login (inside the envelope) and
// /refresh (returned bare).
type tokenData struct {
	AccessToken      string        `json:"access_token"`
	RefreshToken     string        `json:"refresh_token"`
	ExpiresIn        int           `json:"expires_in"`
	RefreshExpiresIn int           `json:"refresh_expires_in"`
	User             *session.User `json:"user,omitempty"`
}

// userEnvelope wraps the /me response.
type userEnvelope struct {
	Data *session.User `json:"data"`
}

// grant validates the raw payload into a typed grant. When the service omits
// expires_in, the lifetime is recovered from the access token's exp claim;
// the token is parsed unverified since the client holds no signing keys.
func (d *tokenData) grant(now time.Time) (*session.Grant, error) {
	if d == nil || d.AccessToken == "" {
		return nil, ErrMalformedResponse
	}

	expiresIn := d.ExpiresIn
	if expiresIn <= 0 {
		exp, err := accessTokenExpiry(d.AccessToken)
		if err != nil {
			return nil, ErrMalformedResponse
		}
		expiresIn = int(exp.Sub(now) / time.Second)
	}
	if expiresIn <= 0 {
		return nil, ErrMalformedResponse
	}

	return &session.Grant{
		AccessToken:      d.AccessToken,
		RefreshToken:     d.RefreshToken,
		ExpiresIn:        expiresIn,
		RefreshExpiresIn: d.RefreshExpiresIn,
		User:             d.User,
	}, nil
}

func accessTokenExpiry(rawToken string) (time.Time, error) {
	token, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return time.Time{}, err
	}

	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, ErrMalformedResponse
	}
	return exp.Time, nil
}
