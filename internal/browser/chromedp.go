package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
)

// Config controls the chromedp driver.
type Config struct {
	// Visible launches a windowed Chrome instead of headless; the demo is
	// meant to be watched, so this defaults to true in service config.
	Visible           bool
	UserAgent         string
	NavigationTimeout time.Duration
}

// Chromedp implements Driver using chromedp and a local Chrome.
type Chromedp struct {
	cfg         Config
	allocator   context.Context
	allocCancel context.CancelFunc
	tab         context.Context
	tabCancel   context.CancelFunc
}

// NewChromedp creates a driver; the browser is not launched until Start.
func NewChromedp(cfg Config) *Chromedp {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 25 * time.Second
	}
	return &Chromedp{cfg: cfg}
}

// Start launches Chrome and opens the working tab.
func (d *Chromedp) Start(ctx context.Context) error {
	if d.tab != nil {
		return errors.New("browser already started")
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !d.cfg.Visible),
		chromedp.Flag("hide-scrollbars", false),
		chromedp.Flag("enable-automation", false),
	)
	d.allocator, d.allocCancel = chromedp.NewExecAllocator(ctx, opts...)
	d.tab, d.tabCancel = chromedp.NewContext(d.allocator)

	actions := []chromedp.Action{d.sessionSetupAction()}
	if err := chromedp.Run(d.tab, actions...); err != nil {
		d.Close(ctx)
		return fmt.Errorf("launch browser: %w", err)
	}
	return nil
}

// Navigate loads url and waits until the document body is ready.
func (d *Chromedp) Navigate(ctx context.Context, url string) error {
	if d.tab == nil {
		return errors.New("browser not started")
	}
	navCtx, cancel := d.actionContext(ctx)
	defer cancel()
	actions := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if err := chromedp.Run(navCtx, actions...); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// Type clicks the element matching selector and sends text rune by rune.
func (d *Chromedp) Type(ctx context.Context, selector, text string, pacing time.Duration) error {
	if d.tab == nil {
		return errors.New("browser not started")
	}
	typeCtx, cancel := d.actionContext(ctx)
	defer cancel()
	actions := []chromedp.Action{
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	}
	for _, r := range text {
		actions = append(actions, chromedp.SendKeys(selector, string(r), chromedp.ByQuery))
		if pacing > 0 {
			actions = append(actions, chromedp.Sleep(pacing))
		}
	}
	if err := chromedp.Run(typeCtx, actions...); err != nil {
		return fmt.Errorf("type into %s: %w", selector, err)
	}
	return nil
}

// Close tears down the tab and the Chrome process. It never fails; repeated
// calls are no-ops.
func (d *Chromedp) Close(context.Context) error {
	if d.tabCancel != nil {
		d.tabCancel()
		d.tab = nil
		d.tabCancel = nil
	}
	if d.allocCancel != nil {
		d.allocCancel()
		d.allocator = nil
		d.allocCancel = nil
	}
	return nil
}

// actionContext derives a per-action timeout from the tab context. The caller
// ctx only gates the deadline; chromedp actions must run on the tab context.
func (d *Chromedp) actionContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := d.cfg.NavigationTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if until := time.Until(deadline); until < timeout {
			timeout = until
		}
	}
	return context.WithTimeout(d.tab, timeout)
}

func (d *Chromedp) sessionSetupAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if d.cfg.UserAgent == "" {
			return nil
		}
		if err := emulation.SetUserAgentOverride(d.cfg.UserAgent).Do(ctx); err != nil {
			return fmt.Errorf("set user-agent: %w", err)
		}
		return nil
	})
}
