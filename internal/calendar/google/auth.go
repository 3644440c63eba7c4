package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/joseph-ayodele/shift-sync/internal/common"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
)

// Authorizer produces an authorized HTTP client from an OAuth client secrets file,
// caching the user's token next to it.
type Authorizer struct {
	CredentialsFile string
	TokenFile       string
	// Out receives the consent URL when no usable token is cached.
	Out    io.Writer
	Logger *slog.Logger
}

// Client returns an HTTP client carrying a valid token. Without a cached token the
// installed-app flow runs: the consent URL is printed and the redirect is caught on a
// loopback listener.
func (a *Authorizer) Client(ctx context.Context) (*http.Client, error) {
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}
	b, err := os.ReadFile(a.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	cfg, err := googleoauth.ConfigFromJSON(b, gcal.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	tok, err := LoadToken(a.TokenFile)
	if err != nil {
		logger.Info("gcal.auth.consent_required", "token_file", a.TokenFile, "reason", err.Error())
		if tok, err = a.consent(ctx, cfg); err != nil {
			return nil, err
		}
	}

	// refresh now so an expired token is rewritten to disk
	fresh, err := cfg.TokenSource(ctx, tok).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w: %w", common.ErrUnauthorized, err)
	}
	if fresh.AccessToken != tok.AccessToken {
		if err := SaveToken(a.TokenFile, fresh); err != nil {
			return nil, err
		}
	}
	return cfg.Client(ctx, fresh), nil
}

func (a *Authorizer) consent(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen for oauth redirect: %w", err)
	}
	cfg.RedirectURL = "http://" + ln.Addr().String()
	state := uuid.NewString()

	codes := make(chan string, 1)
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		_, _ = io.WriteString(w, "Authorization complete. You can close this window.")
		select {
		case codes <- code:
		default:
		}
	})}
	go func() { _ = srv.Serve(ln) }()
	defer func() { _ = srv.Close() }()

	out := a.Out
	if out == nil {
		out = os.Stdout
	}
	_, _ = fmt.Fprintf(out, "Open this URL in a browser to authorize calendar access:\n%s\n",
		cfg.AuthCodeURL(state, oauth2.AccessTypeOffline))

	var code string
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case code = <-codes:
	}
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w: %w", common.ErrUnauthorized, err)
	}
	if err := SaveToken(a.TokenFile, tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// LoadToken reads a cached token. A token without a refresh token is unusable once expired.
func LoadToken(path string) (*oauth2.Token, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	if tok.RefreshToken == "" && !tok.Valid() {
		return nil, errors.New("cached token expired and cannot be refreshed")
	}
	return &tok, nil
}

// SaveToken writes tok with owner-only permissions.
func SaveToken(path string, tok *oauth2.Token) error {
	b, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}
