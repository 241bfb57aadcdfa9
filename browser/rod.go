package browser

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"dividendfetcher/config"
)

// configToProto maps human-readable config strings to Rod protocol resource types.
var configToProto = map[string]proto.NetworkResourceType{
	"Image":      proto.NetworkResourceTypeImage,
	"Stylesheet": proto.NetworkResourceTypeStylesheet,
	"Font":       proto.NetworkResourceTypeFont,
	"Media":      proto.NetworkResourceTypeMedia,
}

// chromeInstance is the rod-backed render instance: one headless Chrome
// process with a single reusable page.
type chromeInstance struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	router   *rod.HijackRouter
}

// NewChromeFactory returns a Factory that launches one headless Chrome per
// instance. Each instance injects stealth JS and blocks the configured heavy
// resource types before any navigation, so every page load benefits.
func NewChromeFactory(cfg config.BrowserConfig) Factory {
	return func() (Instance, error) {
		l := launcher.New().
			Headless(cfg.Headless).
			NoSandbox(cfg.NoSandbox)

		if cfg.BrowserBin != "" {
			l = l.Bin(cfg.BrowserBin)
		}

		l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
		l.Delete(flags.Flag("enable-automation"))
		l.Set(flags.Flag("disable-dev-shm-usage"))
		l.Set(flags.Flag("disable-extensions"))
		l.Set(flags.Flag("disable-default-apps"))
		l.Set(flags.Flag("disable-component-update"))
		l.Set(flags.Flag("no-first-run"))

		controlURL, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}

		b := rod.New().ControlURL(controlURL)
		if err := b.Connect(); err != nil {
			l.Kill()
			return nil, fmt.Errorf("connect to browser: %w", err)
		}

		page, err := b.Page(proto.TargetCreateTarget{})
		if err != nil {
			_ = b.Close()
			l.Kill()
			return nil, fmt.Errorf("create page: %w", err)
		}

		// Stealth must be installed before the first navigation.
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}

		inst := &chromeInstance{
			launcher: l,
			browser:  b,
			page:     page,
			router:   blockResources(page, cfg.BlockedResourceTypes),
		}
		slog.Debug("browser instance launched", "controlURL", controlURL)
		return inst, nil
	}
}

func (c *chromeInstance) Configure(ctx context.Context, userAgent string, width, height int) error {
	p := c.page.Context(ctx)
	if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: userAgent}); err != nil {
		return fmt.Errorf("set user agent: %w", err)
	}
	if err := p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
	}); err != nil {
		return fmt.Errorf("set viewport: %w", err)
	}
	return nil
}

func (c *chromeInstance) Navigate(ctx context.Context, target string) error {
	p := c.page.Context(ctx)

	// A plausible Referer makes the request look like an organic visit.
	if u, err := url.Parse(target); err == nil {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: proto.NetworkHeaders{
				"Referer": gson.New("https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())),
			},
		}.Call(p)
	}

	if err := p.Navigate(target); err != nil {
		return err
	}

	// NOTE: WaitRequestIdle uses the Fetch domain which conflicts with
	// HijackRequests on Chromium 145+. WaitDOMStable is the reliable
	// settle signal when resource hijacking is mounted.
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}
	return nil
}

func (c *chromeInstance) WaitVisible(ctx context.Context, selector string) error {
	p := c.page.Context(ctx)
	el, err := p.Element(selector)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	if err := el.WaitVisible(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func (c *chromeInstance) HTML(ctx context.Context) (string, error) {
	return c.page.Context(ctx).HTML()
}

// Reset closes any extra pages opened during use and parks the main page on
// about:blank, leaving a single clean context for the next borrower.
func (c *chromeInstance) Reset() error {
	pages, err := c.browser.Pages()
	if err != nil {
		return fmt.Errorf("list pages: %w", err)
	}
	for _, p := range pages {
		if p.TargetID == c.page.TargetID {
			continue
		}
		if closeErr := p.Close(); closeErr != nil {
			slog.Warn("reset: failed to close extra page", "error", closeErr)
		}
	}
	if err := c.page.Navigate("about:blank"); err != nil {
		return fmt.Errorf("navigate to about:blank: %w", err)
	}
	return nil
}

func (c *chromeInstance) Close() error {
	if c.router != nil {
		_ = c.router.Stop()
	}
	err := c.browser.Close()
	c.launcher.Kill()
	return err
}

// blockResources installs a request interceptor that fails requests for the
// configured resource types (images, CSS, fonts, media), cutting render time
// for pages where only the DOM matters. Returns nil when nothing is blocked.
func blockResources(page *rod.Page, blockedTypes []string) *rod.HijackRouter {
	blocked := make(map[proto.NetworkResourceType]struct{}, len(blockedTypes))
	for _, name := range blockedTypes {
		if rt, ok := configToProto[name]; ok {
			blocked[rt] = struct{}{}
		}
	}
	if len(blocked) == 0 {
		return nil
	}

	router := page.HijackRequests()
	_ = router.Add("*", "", func(ctx *rod.Hijack) {
		if _, shouldBlock := blocked[ctx.Request.Type()]; shouldBlock {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})

	// router.Run() blocks, so it must live in its own goroutine.
	// It exits when router.Stop() is called.
	go router.Run()

	return router
}
