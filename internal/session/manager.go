// Copyright (c) 2026 Restkit. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session implements the token-based authentication and
session-validation protocol.

It issues revocable, binding-checked bearer tokens backed by an external
keyed store.

Architecture:

  - Token: a signed, self-describing JWT carrying issuer, expiry, and a
    unique identifier (jti). Stateless on the wire.
  - Session: the server-side record keyed by the jti, holding the issuing
    client's IP, user agent, and caller-supplied claims.
  - Double check: a token is valid only when both its signature/expiry
    verify AND a live session record exists. The signature gives
    scalability (no central session lock on the hot path), the store gives
    instant revocation ("logout everywhere" by deleting records). Neither
    half is sufficient on its own.
*/
package session

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taibuivan/restkit/internal/platform/apperr"
	"github.com/taibuivan/restkit/internal/platform/constants"
	"github.com/taibuivan/restkit/internal/platform/ctxkey"
	"github.com/taibuivan/restkit/internal/platform/ctxutil"
	"github.com/taibuivan/restkit/internal/platform/middleware"
)

// Stable error codes of the session module.
const (
	codeMissingHeader = 7410
	codeBadScheme     = 7411
	codeBadToken      = 7411
	codeRevoked       = 7412
	codeIPMismatch    = 7413
	codeUAMismatch    = 7414
	codeSignFailed    = 7500
	codeBadRecord     = 7501
)

// signingMethod is the single accepted HMAC variant. Pinning the algorithm
// closes the classic "alg confusion" downgrade on JWT verification.
var signingMethod = jwt.SigningMethodHS256

// registeredClaims are the JWT claims that never merge into user claims.
var registeredClaims = map[string]struct{}{
	"iss": {}, "exp": {}, "iat": {}, "jti": {},
}

// Manager issues and validates bearer tokens against an external session
// store. It is the sole writer of session records.
type Manager struct {
	store  Store
	secret []byte
	now    func() time.Time
}

// NewManager creates a session manager signing tokens with the given secret.
func NewManager(store Store, secret []byte) *Manager {
	return &Manager{store: store, secret: secret, now: time.Now}
}

// Meta is the client context a token is bound to at issuance.
type Meta struct {
	// Host becomes the token issuer.
	Host string
	// IP is the originating client address. Empty disables IP binding.
	IP string
	// UserAgent is the originating client agent. Empty disables UA binding.
	UserAgent string
}

// MetaFromRequest captures the binding context of the issuing request.
func MetaFromRequest(request *http.Request) Meta {
	return Meta{
		Host:      request.Host,
		IP:        middleware.RealIP(request),
		UserAgent: request.UserAgent(),
	}
}

// Session is a validated server-side session.
type Session struct {
	// ID is the token identifier (jti).
	ID string
	// IP and UserAgent are the bound client context.
	IP        string
	UserAgent string
	// Claims holds the caller-supplied claims, stored record merged over
	// the token payload.
	Claims map[string]any
	// Unchecked marks a session accepted without a store lookup because the
	// store failed. Revocation is not guaranteed for such sessions.
	Unchecked bool

	manager *Manager
}

// Destroy deletes the backing store record, revoking the token everywhere.
// It is idempotent: destroying an already-revoked session succeeds.
func (s *Session) Destroy(ctx context.Context) error {
	if s.manager == nil {
		return nil
	}
	return s.manager.store.Del(ctx, s.ID)
}

// record is the session payload persisted in the store.
type record struct {
	IP        string         `json:"ip"`
	UserAgent string         `json:"user_agent"`
	Claims    map[string]any `json:"claims,omitempty"`
}

// # Issuance

// Issue generates a signed token embedding a fresh random identifier and
// writes the matching session record with a fixed expiry.
//
// The store write is best-effort: a failure is logged but does not fail the
// issuance, the token simply degrades to an unchecked credential until the
// store recovers.
func (m *Manager) Issue(ctx context.Context, claims map[string]any, meta Meta) (string, error) {
	id, err := generateID()
	if err != nil {
		return "", apperr.Internal("Token generation failed", codeSignFailed, err)
	}

	now := m.now()
	payload := jwt.MapClaims{
		"iss": meta.Host,
		"iat": jwt.NewNumericDate(now),
		"exp": jwt.NewNumericDate(now.Add(constants.SessionTTL)),
		"jti": id,
	}
	for key, value := range claims {
		if _, reserved := registeredClaims[key]; !reserved {
			payload[key] = value
		}
	}

	signed, err := jwt.NewWithClaims(signingMethod, payload).SignedString(m.secret)
	if err != nil {
		return "", apperr.Internal("Token signing failed", codeSignFailed, err)
	}

	body, err := json.Marshal(record{IP: meta.IP, UserAgent: meta.UserAgent, Claims: claims})
	if err == nil {
		err = m.store.Set(ctx, id, string(body), constants.SessionTTL)
	}
	if err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "session_record_write_failed",
			"session_id", id, "error", err.Error())
	}

	return signed, nil
}

// generateID draws a fixed-length identifier from the session alphabet using
// a cryptographically secure source.
func generateID() (string, error) {
	out := make([]byte, constants.SessionIDLength)
	max := big.NewInt(int64(len(constants.SessionIDAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = constants.SessionIDAlphabet[n.Int64()]
	}
	return string(out), nil
}

// # Validation

// Authenticate validates the request's bearer token and returns its session.
//
// Validation is idempotent within one request: a session already attached to
// the request context is returned immediately. Otherwise the token
// signature, issuer, and algorithm are verified, the session record is
// looked up, and the IP/user-agent bindings are checked. The binding checks
// tie a token to its original client context, limiting the replay value of a
// leaked token.
func (m *Manager) Authenticate(request *http.Request) (*Session, error) {
	if cached := FromContext(request.Context()); cached != nil {
		return cached, nil
	}

	header := request.Header.Get(constants.HeaderAuthorization)
	if header == "" {
		return nil, apperr.Forbidden("Authentication required", codeMissingHeader)
	}
	scheme, tokenString, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return nil, apperr.BadFormat("Bad authorization scheme, expecting Bearer", codeBadScheme)
	}

	token, err := jwt.Parse(tokenString,
		func(t *jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(request.Host),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired token", codeBadToken)
	}
	payload, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperr.Unauthorized("Invalid token claims", codeBadToken)
	}
	id, _ := payload["jti"].(string)
	if id == "" {
		return nil, apperr.Unauthorized("Token carries no identifier", codeBadToken)
	}

	session := &Session{ID: id, Claims: make(map[string]any), manager: m}
	for key, value := range payload {
		if _, reserved := registeredClaims[key]; !reserved {
			session.Claims[key] = value
		}
	}

	body, err := m.store.Get(request.Context(), id)
	switch {
	case err == nil:
		var stored record
		if err := json.Unmarshal([]byte(body), &stored); err != nil {
			return nil, apperr.Internal("Corrupted session record", codeBadRecord, err)
		}
		if stored.IP != "" && stored.IP != middleware.RealIP(request) {
			return nil, apperr.Unauthorized("Token bound to a different address", codeIPMismatch)
		}
		if stored.UserAgent != "" && stored.UserAgent != request.UserAgent() {
			return nil, apperr.Unauthorized("Token bound to a different client", codeUAMismatch)
		}
		session.IP = stored.IP
		session.UserAgent = stored.UserAgent
		for key, value := range stored.Claims {
			session.Claims[key] = value
		}
	case errors.Is(err, ErrNoSession):
		return nil, apperr.Unauthorized("Token has been revoked or expired", codeRevoked)
	default:
		// Store outage: accept the token unchecked rather than rejecting
		// every authenticated request. Revocation is not enforced until the
		// store recovers.
		ctxutil.GetLogger(request.Context()).WarnContext(request.Context(),
			"session_store_unavailable", "session_id", id, "error", err.Error())
		session.Unchecked = true
	}

	return session, nil
}

// # Request Context

// WithContext caches a validated session for the request lifetime.
func WithContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxkey.KeySession, s)
}

// FromContext retrieves the cached session, or nil when unauthenticated.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxkey.KeySession).(*Session)
	return s
}
