package web

import (
	"context"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	apperrors "mdc/internal/errors"
)

// Browser is the hardened fetch backend: a headless Chrome instance
// that can sit out anti-bot interstitials an ordinary request cannot.
type Browser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	timeout     time.Duration
}

// BrowserOptions configures the hardened backend.
type BrowserOptions struct {
	Headless      bool
	NoSandbox     bool
	DisableImages bool
	UserAgent     string
	Timeout       time.Duration
}

// DefaultBrowserOptions returns the settings used when none are given.
func DefaultBrowserOptions() *BrowserOptions {
	return &BrowserOptions{
		Headless:      true,
		NoSandbox:     true,
		DisableImages: true,
		UserAgent:     DefaultUserAgent,
		Timeout:       30 * time.Second,
	}
}

// NewBrowser launches the headless instance. The caller owns it and
// must Close it.
func NewBrowser(opts *BrowserOptions) (*Browser, error) {
	if opts == nil {
		opts = DefaultBrowserOptions()
	}

	chromeOpts := []chromedp.ExecAllocatorOption{
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(opts.UserAgent),
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	}
	if opts.Headless {
		chromeOpts = append(chromeOpts, chromedp.Headless)
	}
	if opts.NoSandbox {
		chromeOpts = append(chromeOpts, chromedp.NoSandbox)
	}
	if opts.DisableImages {
		chromeOpts = append(chromeOpts, chromedp.Flag("blink-settings", "imagesEnabled=false"))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), chromeOpts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	return &Browser{
		ctx:         ctx,
		cancel:      cancel,
		allocCancel: allocCancel,
		timeout:     opts.Timeout,
	}, nil
}

// FetchHTML navigates to a URL, waits out any interstitial challenge,
// and returns the rendered document.
func (b *Browser) FetchHTML(ctx context.Context, url string) (string, error) {
	runCtx, cancel := context.WithTimeout(b.ctx, b.timeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()
	defer close(done)

	if err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	); err != nil {
		return "", apperrors.Wrap(apperrors.KindNetwork, "browser", "navigating", err)
	}

	if err := b.waitChallenge(runCtx); err != nil {
		return "", err
	}

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", apperrors.Wrap(apperrors.KindNetwork, "browser", "reading document", err)
	}
	return html, nil
}

// waitChallenge polls the page title until an anti-bot interstitial
// resolves or the context expires.
func (b *Browser) waitChallenge(ctx context.Context) error {
	var title string
	if err := chromedp.Run(ctx, chromedp.Title(&title)); err != nil {
		return apperrors.Wrap(apperrors.KindNetwork, "browser", "reading title", err)
	}
	if !challengeTitle(title) {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return apperrors.New(apperrors.KindNetwork, "browser", "challenge did not resolve: "+title)
		case <-time.After(time.Second):
			var now string
			if err := chromedp.Run(ctx, chromedp.Title(&now)); err != nil {
				return apperrors.Wrap(apperrors.KindNetwork, "browser", "reading title", err)
			}
			if !challengeTitle(now) {
				return nil
			}
		}
	}
}

func challengeTitle(title string) bool {
	lower := strings.ToLower(title)
	return strings.Contains(lower, "just a moment") ||
		strings.Contains(lower, "checking your browser")
}

// SetCookie seeds a cookie into the browser profile before fetching.
func (b *Browser) SetCookie(name, value, domain string) error {
	return chromedp.Run(b.ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			return network.SetCookie(name, value).WithDomain(domain).Do(ctx)
		}),
	)
}

// Close tears down the Chrome instance.
func (b *Browser) Close() error {
	if b.cancel != nil {
		b.cancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
	return nil
}
