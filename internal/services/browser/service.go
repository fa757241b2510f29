// Package browser captures an open webmail tab from a running Chrome over the DevTools protocol.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mailticket/internal/common"
	"github.com/ternarybob/mailticket/internal/models"
	"github.com/ternarybob/mailticket/internal/services/extractor"
)

// Page is a captured tab
type Page struct {
	URL  string
	HTML string
}

// Service attaches to Chrome started with --remote-debugging-port
type Service struct {
	debugURL string
	timeout  time.Duration
	logger   arbor.ILogger
	detach   detachFunc
}

// detachFunc ends a DevTools session on a tab without closing the tab
type detachFunc func(ctx context.Context, c *chromedp.Context, session target.SessionID) error

func detachSession(ctx context.Context, c *chromedp.Context, session target.SessionID) error {
	return target.DetachFromTarget().WithSessionID(session).Do(cdp.WithExecutor(ctx, c.Browser))
}

func NewService(config common.BrowserConfig, logger arbor.ILogger) *Service {
	timeout := config.Timeout.Duration
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Service{
		debugURL: config.DebugURL,
		timeout:  timeout,
		logger:   logger,
		detach:   detachSession,
	}
}

// Capture returns URL and HTML of the first open webmail tab. match, when set, narrows
// the choice to tabs whose URL contains it.
func (s *Service) Capture(ctx context.Context, match string) (*Page, error) {
	if s.debugURL == "" {
		return nil, fmt.Errorf("browser debug_url is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	allocCtx, allocCancel := chromedp.NewRemoteAllocator(ctx, s.debugURL)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	targets, err := chromedp.Targets(browserCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to list browser tabs at %s: %w", s.debugURL, err)
	}

	tab := PickTarget(targets, match)
	if tab == nil {
		return nil, fmt.Errorf("no open Gmail or Outlook tab found (%d tabs inspected)", len(targets))
	}

	s.logger.Debug().Str("url", tab.URL).Str("title", tab.Title).Msg("Attaching to browser tab")

	tabCtx, tabCancel := chromedp.NewContext(browserCtx, chromedp.WithTargetID(tab.TargetID))
	defer tabCancel()
	defer s.release(tabCtx)

	page := &Page{}
	if err := chromedp.Run(tabCtx,
		chromedp.Location(&page.URL),
		chromedp.OuterHTML("html", &page.HTML, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("failed to read tab content: %w", err)
	}

	s.logger.Info().Str("url", page.URL).Int("bytes", len(page.HTML)).Msg("Captured browser tab")
	return page, nil
}

// release detaches from the user's tab. Cancelling a chromedp context that still
// holds its target closes that tab, so the target is cleared before tabCancel runs.
func (s *Service) release(tabCtx context.Context) {
	c := chromedp.FromContext(tabCtx)
	if c == nil || c.Target == nil {
		return
	}
	session := c.Target.SessionID
	c.Target = nil

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.detach(ctx, c, session); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to detach from browser tab")
	}
}

// PickTarget chooses the first page target that belongs to a supported webmail client
func PickTarget(targets []*target.Info, match string) *target.Info {
	for _, t := range targets {
		if t == nil || t.Type != "page" {
			continue
		}
		if match != "" && !strings.Contains(t.URL, match) {
			continue
		}
		if extractor.DetectClient(t.URL) != models.EmailClientUnknown {
			return t
		}
	}
	return nil
}
