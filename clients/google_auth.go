package clients

import (
	"context"
	"net/http"

	"github.com/Luismorlan/mediamux/app_config"
	"golang.org/x/oauth2"
)

const (
	googleAuthUrl  = "https://accounts.google.com/o/oauth2/auth"
	googleTokenUrl = "https://oauth2.googleapis.com/token"

	ScopeSpreadsheets = "https://www.googleapis.com/auth/spreadsheets"
	ScopeDriveFile    = "https://www.googleapis.com/auth/drive.file"
)

// NewGoogleTokenSource returns a refreshing token source for the configured
// offline credentials. The token is cached inside the source, callers share
// one source instead of keeping tokens around themselves.
func NewGoogleTokenSource(ctx context.Context, cfg app_config.GoogleConfig) oauth2.TokenSource {
	conf := &oauth2.Config{
		ClientID:     cfg.ClientId,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  googleAuthUrl,
			TokenURL: googleTokenUrl,
		},
		Scopes: []string{ScopeSpreadsheets, ScopeDriveFile},
	}
	return conf.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
}

// NewGoogleHttpClient returns an HttpClient authenticating every request with
// a token from ts.
func NewGoogleHttpClient(ctx context.Context, ts oauth2.TokenSource) *HttpClient {
	client := oauth2.NewClient(ctx, ts)
	client.Timeout = defaultTimeout
	return NewHttpClient(http.Header{}, client)
}
