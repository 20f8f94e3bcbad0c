package services

import (
	"net/http"
)

type AuthEngine interface {
	SetApiKey(request *http.Request)
}

// BasicAuth signs remote requests with a connection's static credential pair.
type BasicAuth struct {
	username string
	password string
}

func (b *BasicAuth) SetApiKey(request *http.Request) {
	if b == nil {
		return
	}
	request.SetBasicAuth(b.username, b.password)
}

func NewBasicAuth(username, password string) *BasicAuth {
	if username == "" || password == "" {
		return nil
	}
	return &BasicAuth{username: username, password: password}
}

// BearerAuth signs calls to the sync API with an admin token.
type BearerAuth struct {
	apiKey string
}

func (b *BearerAuth) SetApiKey(request *http.Request) {
	if b == nil {
		return
	}
	request.Header.Set("Authorization", "Bearer "+b.apiKey)
}

func NewBearerAuth(apiKey string) *BearerAuth {
	if apiKey == "" {
		return nil
	}
	return &BearerAuth{apiKey: apiKey}
}
