package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"

	"github.com/joseph-ayodele/shift-sync/internal/traversal"
)

// Options configure the browser the schedule is driven through.
type Options struct {
	Bin         string // chrome binary; empty lets the launcher resolve one
	UserDataDir string
	Headless    bool
	Locator     string // CSS selector of the rendering surface
}

// Session owns a launched browser and the single page the schedule renders in.
// It satisfies traversal.Driver.
type Session struct {
	opts     Options
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	logger   *slog.Logger
}

var _ traversal.Driver = (*Session)(nil)

// Launch starts a browser and connects to it.
func Launch(ctx context.Context, opts Options, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Locator == "" {
		opts.Locator = "flutter-view"
	}

	l := launcher.New().
		Headless(opts.Headless).
		Set(flags.Flag("start-maximized")).
		Set(flags.Flag("disable-blink-features"), "AutomationControlled").
		Set(flags.Flag("disable-infobars")).
		Set(flags.Flag("disable-notifications")).
		Set(flags.Flag("disable-popup-blocking")).
		Set(flags.Flag("password-store"), "basic")
	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	}
	if opts.UserDataDir != "" {
		l = l.UserDataDir(opts.UserDataDir)
	}

	start := time.Now()
	controlURL, err := l.Context(ctx).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	logger.Info("capture.browser.ready", "headless", opts.Headless, "duration_ms", time.Since(start).Milliseconds())

	return &Session{opts: opts, launcher: l, browser: browser, logger: logger}, nil
}

// Open navigates a fresh page to url.
func (s *Session) Open(ctx context.Context, url string) error {
	page, err := s.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	s.page = page
	s.logger.Info("capture.page.opened", "url", url)
	return nil
}

// WaitForSurface blocks until the rendering surface is visible. The operator completes
// sign-in and any challenge in the browser window meanwhile.
func (s *Session) WaitForSurface(ctx context.Context, timeout time.Duration) error {
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	s.logger.Info("capture.login.waiting", "timeout", timeout.String())
	if _, err := s.Locate(wctx); err != nil {
		return fmt.Errorf("wait for %s after login: %w", s.opts.Locator, err)
	}
	s.logger.Info("capture.login.done")
	return nil
}

// Locate resolves the rendering surface, waiting until it is visible or ctx is done.
func (s *Session) Locate(ctx context.Context) (traversal.Surface, error) {
	if s.page == nil {
		return nil, errors.New("no page open")
	}
	el, err := s.page.Context(ctx).Element(s.opts.Locator)
	if err != nil {
		return nil, err
	}
	if err := el.WaitVisible(); err != nil {
		return nil, err
	}
	return &Surface{el: el}, nil
}

// Back navigates the page one history entry back.
func (s *Session) Back(ctx context.Context) error {
	if s.page == nil {
		return errors.New("no page open")
	}
	return s.page.Context(ctx).NavigateBack()
}

// Close shuts the browser down and removes the launcher's temporary profile.
func (s *Session) Close() error {
	var err error
	if s.browser != nil {
		err = s.browser.Close()
	}
	if s.launcher != nil {
		s.launcher.Kill()
		if s.opts.UserDataDir == "" {
			s.launcher.Cleanup()
		}
	}
	s.logger.Debug("capture.browser.closed")
	return err
}
