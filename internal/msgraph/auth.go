package msgraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/Tiliavir/study-time-tracker/internal/storage"
)

var requiredScopes = []string{
	"https://graph.microsoft.com/Calendars.Read",
	"offline_access",
}

func msEndpoint(tenantID, path string) string {
	return "https://login.microsoftonline.com/" + tenantID + "/oauth2/v2.0/" + path
}

// TokenFilePath returns the default token location below the stt data
// directory.
func TokenFilePath() (string, error) {
	base, err := storage.BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "auth", "msgraph_tokens.json"), nil
}

// Authenticator obtains Microsoft Graph tokens with the OAuth2 device code
// flow and caches them in a file.
type Authenticator struct {
	Config    *oauth2.Config
	TokenPath string
	// Prompt receives the device code instructions.
	Prompt io.Writer
	Logger zerolog.Logger
}

// NewAuthenticator returns an authenticator for the given tenant and client
// caching tokens at TokenFilePath.
func NewAuthenticator(tenantID, clientID string, prompt io.Writer, logger zerolog.Logger) (*Authenticator, error) {
	path, err := TokenFilePath()
	if err != nil {
		return nil, err
	}
	return &Authenticator{
		Config:    oauth2Config(tenantID, clientID),
		TokenPath: path,
		Prompt:    prompt,
		Logger:    logger,
	}, nil
}

// oauth2Config returns the oauth2.Config for Microsoft Graph using the
// provided tenant and client IDs.
func oauth2Config(tenantID, clientID string) *oauth2.Config {
	return &oauth2.Config{
		ClientID: clientID,
		Scopes:   requiredScopes,
		Endpoint: oauth2.Endpoint{
			DeviceAuthURL: msEndpoint(tenantID, "devicecode"),
			TokenURL:      msEndpoint(tenantID, "token"),
			AuthStyle:     oauth2.AuthStyleInParams,
		},
	}
}

// loadToken returns nil without error when no token was saved yet.
func (a *Authenticator) loadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(a.TokenPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("corrupt token file (delete %s to re-authenticate): %w", a.TokenPath, err)
	}
	return &tok, nil
}

// saveToken persists a token to disk.
func (a *Authenticator) saveToken(tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(a.TokenPath), 0o700); err != nil {
		return fmt.Errorf("creating auth directory: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling token: %w", err)
	}
	tmpPath := a.TokenPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := os.Rename(tmpPath, a.TokenPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("saving token file: %w", err)
	}
	return nil
}

// Token returns a valid token. It uses the cached token, refreshes it if
// needed, or runs a new device code flow.
func (a *Authenticator) Token(ctx context.Context) (*oauth2.Token, error) {
	tok, err := a.loadToken()
	if err != nil {
		a.Logger.Warn().Err(err).Msg("ignoring cached token")
		tok = nil
	}

	if tok != nil && tok.Valid() {
		return tok, nil
	}

	if tok != nil && tok.RefreshToken != "" {
		refreshed, err := a.Config.TokenSource(ctx, tok).Token()
		if err == nil {
			if err := a.saveToken(refreshed); err != nil {
				a.Logger.Warn().Err(err).Msg("could not save refreshed token")
			}
			return refreshed, nil
		}
		a.Logger.Info().Err(err).Msg("token refresh failed, re-authenticating")
	}

	resp, err := a.Config.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("device auth request failed: %w", err)
	}

	fmt.Fprintln(a.Prompt)
	fmt.Fprintln(a.Prompt, "To sign in, use a web browser to open the page:")
	fmt.Fprintf(a.Prompt, "  %s\n", resp.VerificationURI)
	fmt.Fprintf(a.Prompt, "Enter the code: %s\n", resp.UserCode)
	fmt.Fprintln(a.Prompt)

	newTok, err := a.Config.DeviceAccessToken(ctx, resp)
	if err != nil {
		return nil, fmt.Errorf("device authentication failed: %w", err)
	}
	if err := a.saveToken(newTok); err != nil {
		a.Logger.Warn().Err(err).Msg("could not save token")
	}
	return newTok, nil
}

// TokenSource returns a source that starts from tok and saves every token
// it hands out.
func (a *Authenticator) TokenSource(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource {
	return &savingTokenSource{ts: a.Config.TokenSource(ctx, tok), auth: a}
}

// savingTokenSource wraps a TokenSource and persists refreshed tokens.
type savingTokenSource struct {
	ts   oauth2.TokenSource
	auth *Authenticator
	last string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.ts.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := s.auth.saveToken(tok); err != nil {
			s.auth.Logger.Debug().Err(err).Msg("could not save token")
		}
	}
	return tok, nil
}
