package gsheets

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"go.alis.build/alog"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
)

type authMode int

const (
	authAnonymous authMode = iota
	authToken
	authServiceAccount
)

// Token is a static access credential. Type determines the Authorization header
// scheme: "Bearer" tokens use the standard bearer form, anything else uses the
// legacy GoogleLogin auth-parameter form.
type Token struct {
	Type  string
	Value string
}

// TokenIssuer produces a fresh access token together with its expiry time. The
// default issuer is backed by a Google service-account JWT grant; tests and
// callers with their own token plumbing can install a custom one via
// Spreadsheet.UseTokenIssuer.
type TokenIssuer interface {
	Issue(ctx context.Context) (*Token, time.Time, error)
}

// jwtIssuer issues tokens from a service-account key via the two-legged OAuth
// flow, following the TokenSource pattern.
type jwtIssuer struct {
	conf *jwt.Config
}

func (i *jwtIssuer) Issue(ctx context.Context) (*Token, time.Time, error) {
	tok, err := i.conf.TokenSource(ctx).Token()
	if err != nil {
		return nil, time.Time{}, err
	}
	return &Token{Type: tok.TokenType, Value: tok.AccessToken}, tok.Expiry, nil
}

// authManager holds the credential state machine: anonymous until a credential is
// installed, then static-token or service-account. Service-account mode re-issues
// the token whenever the held one has expired, before the request goes out.
//
// No lock guards the token fields. Callers issuing truly concurrent authenticated
// requests against one Spreadsheet must serialize them themselves; an overlapping
// renewal is harmless but wasteful.
type authManager struct {
	mode   authMode
	token  *Token
	expiry time.Time
	issuer TokenIssuer
}

func (a *authManager) authenticated() bool {
	return a.mode != authAnonymous
}

// setToken installs a static credential and promotes the mode. The promotion is
// one-directional: there is no way back to anonymous.
func (a *authManager) setToken(tok Token) {
	a.token = &tok
	if a.mode == authAnonymous {
		a.mode = authToken
	}
}

func (a *authManager) setIssuer(issuer TokenIssuer) {
	a.issuer = issuer
	a.mode = authServiceAccount
	// Force an issue before the first authenticated request.
	a.token = nil
	a.expiry = time.Time{}
}

// setAuthorization attaches the Authorization header for the current mode,
// renewing a service-account token first when the held one has expired.
func (a *authManager) setAuthorization(ctx context.Context, header http.Header) error {
	if a.mode == authAnonymous {
		return nil
	}
	if a.mode == authServiceAccount && (a.token == nil || !time.Now().Before(a.expiry)) {
		alog.Warnf(ctx, "gsheets: service-account token expired, re-authorizing")
		tok, expiry, err := a.issuer.Issue(ctx)
		if err != nil {
			return err
		}
		a.token = tok
		a.expiry = expiry
	}
	if strings.EqualFold(a.token.Type, "Bearer") {
		header.Set("Authorization", "Bearer "+a.token.Value)
	} else {
		header.Set("Authorization", "GoogleLogin auth="+a.token.Value)
	}
	return nil
}

// SetAuthToken installs a static access token. Any visibility and projection not
// explicitly overridden switch to private/full from the next request on.
func (s *Spreadsheet) SetAuthToken(tok Token) {
	s.auth.setToken(tok)
}

// UseServiceAccountJSON installs a Google service-account credential from its JSON
// key material. Tokens are issued lazily and renewed whenever expired.
func (s *Spreadsheet) UseServiceAccountJSON(jsonKey []byte) error {
	conf, err := google.JWTConfigFromJSON(jsonKey, defaultFeedRoot)
	if err != nil {
		return err
	}
	s.auth.setIssuer(&jwtIssuer{conf: conf})
	return nil
}

// UseServiceAccountFile reads a service-account JSON key file and installs it via
// UseServiceAccountJSON.
func (s *Spreadsheet) UseServiceAccountFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return s.UseServiceAccountJSON(b)
}

// UseTokenIssuer installs a custom token issuer and switches to service-account
// mode.
func (s *Spreadsheet) UseTokenIssuer(issuer TokenIssuer) {
	s.auth.setIssuer(issuer)
}
