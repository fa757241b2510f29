package browser

import (
	"context"
	"testing"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mailticket/internal/common"
)

func TestPickTarget(t *testing.T) {
	targets := []*target.Info{
		{TargetID: "1", Type: "service_worker", URL: "https://mail.google.com/sw.js"},
		{TargetID: "2", Type: "page", URL: "https://news.example.com/"},
		{TargetID: "3", Type: "page", URL: "https://outlook.office.com/mail/inbox/id/AAQk"},
		{TargetID: "4", Type: "page", URL: "https://mail.google.com/mail/u/0/#inbox/FMfcg"},
	}

	got := PickTarget(targets, "")
	require.NotNil(t, got)
	assert.Equal(t, target.ID("3"), got.TargetID)

	got = PickTarget(targets, "mail.google.com")
	require.NotNil(t, got)
	assert.Equal(t, target.ID("4"), got.TargetID)

	assert.Nil(t, PickTarget(targets[:2], ""))
	assert.Nil(t, PickTarget(nil, ""))
}

func TestCapture_RequiresDebugURL(t *testing.T) {
	svc := NewService(common.BrowserConfig{}, arbor.NewLogger())

	_, err := svc.Capture(context.Background(), "")
	assert.EqualError(t, err, "browser debug_url is not configured")
}

func TestRelease_DetachesWithoutClosingTab(t *testing.T) {
	svc := NewService(common.BrowserConfig{DebugURL: "http://localhost:9222"}, arbor.NewLogger())

	var detached []target.SessionID
	svc.detach = func(ctx context.Context, c *chromedp.Context, session target.SessionID) error {
		detached = append(detached, session)
		return nil
	}

	tabCtx, _ := chromedp.NewContext(context.Background())
	c := chromedp.FromContext(tabCtx)
	c.Target = &chromedp.Target{SessionID: "session-1", TargetID: "tab-1"}

	svc.release(tabCtx)

	assert.Equal(t, []target.SessionID{"session-1"}, detached)
	assert.Nil(t, c.Target, "a target left on the context is closed when the context is cancelled")

	// With no target left, cancelling issues no close and reports no error
	assert.NoError(t, chromedp.Cancel(tabCtx))
}

func TestRelease_NoTarget(t *testing.T) {
	svc := NewService(common.BrowserConfig{}, arbor.NewLogger())
	svc.detach = func(ctx context.Context, c *chromedp.Context, session target.SessionID) error {
		t.Fatal("detach called without an attached tab")
		return nil
	}

	tabCtx, cancel := chromedp.NewContext(context.Background())
	defer cancel()
	svc.release(tabCtx)
	svc.release(context.Background())
}
