package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenCookie name of the cookie carrying the access token
const AccessTokenCookie = "access_token_cookie"

var (
	ErrMissingToken   = errors.New("missing token")
	ErrInvalidToken   = errors.New("invalid token")
	ErrMissingSubject = errors.New("token has no subject")
)

// TokenData what we keep from a verified token
type TokenData struct {
	Subject string
}

// ClientInterface interface that we will implement and mock
type ClientInterface interface {
	Authenticate(req *http.Request) (*TokenData, error)
}

// Client verifies HS256 identity tokens
type Client struct {
	secret    []byte
	extractor jwtmiddleware.TokenExtractor
	parser    *jwt.Parser
}

// NewClient creates a new Auth Client
func NewClient(secret string) (*Client, error) {
	if secret == "" {
		return nil, errors.New("token secret is empty")
	}
	return &Client{
		secret: []byte(secret),
		// The header wins over the cookie
		extractor: jwtmiddleware.MultiTokenExtractor(
			jwtmiddleware.AuthHeaderTokenExtractor,
			jwtmiddleware.CookieTokenExtractor(AccessTokenCookie),
		),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithLeeway(5*time.Second),
			jwt.WithJSONNumber(),
		),
	}, nil
}

// Authenticate the incoming request using the Authorization Bearer token or the access token cookie
func (client *Client) Authenticate(req *http.Request) (*TokenData, error) {
	rawToken, err := client.extractor(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingToken, err)
	}
	if rawToken == "" {
		return nil, ErrMissingToken
	}

	claims := jwt.MapClaims{}
	_, err = client.parser.ParseWithClaims(rawToken, claims, func(token *jwt.Token) (interface{}, error) {
		return client.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	subject, err := subjectOf(claims)
	if err != nil {
		return nil, err
	}
	return &TokenData{Subject: subject}, nil
}

// subjectOf the sub claim may be a string or a number, numbers are rendered as base-10 integers when they are one
func subjectOf(claims jwt.MapClaims) (string, error) {
	switch sub := claims["sub"].(type) {
	case string:
		if strings.TrimSpace(sub) == "" {
			return "", ErrMissingSubject
		}
		return sub, nil
	case json.Number:
		// Integers are kept exact, float64 loses them past 2^53
		if id, err := sub.Int64(); err == nil {
			return strconv.FormatInt(id, 10), nil
		}
		return sub.String(), nil
	case float64:
		return strconv.FormatFloat(sub, 'f', -1, 64), nil
	case nil:
		return "", ErrMissingSubject
	default:
		return "", fmt.Errorf("%w: unsupported subject type %T", ErrInvalidToken, sub)
	}
}

type subjectKey struct{}

// WithSubject returns a copy of ctx carrying the verified subject
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey{}, subject)
}

// SubjectFromContext returns the subject of an authenticated request
func SubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectKey{}).(string)
	return subject, ok && subject != ""
}
