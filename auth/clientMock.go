package auth

import (
	"net/http"
)

// ClientMock accepts any request with an Authorization header or an access token cookie
type ClientMock struct {
	Unauthorized bool
	Subject      string
}

func NewMock(subject string) *ClientMock {
	return &ClientMock{
		Unauthorized: false,
		Subject:      subject,
	}
}

func (client *ClientMock) Authenticate(req *http.Request) (*TokenData, error) {
	if client.Unauthorized {
		return nil, ErrInvalidToken
	}
	if req.Header.Get("Authorization") != "" {
		return &TokenData{Subject: client.Subject}, nil
	}
	if _, err := req.Cookie(AccessTokenCookie); err == nil {
		return &TokenData{Subject: client.Subject}, nil
	}
	return nil, ErrMissingToken
}
