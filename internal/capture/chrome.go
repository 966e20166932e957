// internal/capture/chrome.go
package capture

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/rlfscan/internal/dom"
)

// ChromeOptions configures the headless browser used for captures.
type ChromeOptions struct {
	Headless bool
	// ExecPath overrides the browser binary chromedp looks up.
	ExecPath string
	// Args are extra command line flags, "name" or "name=value".
	Args []string
	// Height is the viewport height used at every width.
	Height int
	// Settle is how long to wait after load before reading the layout.
	Settle time.Duration
	// Timeout bounds one capture, navigation included.
	Timeout time.Duration
}

// serializeScript walks the live document and returns it as the JSON form
// of dom.Element. Unrendered elements get a null rect.
const serializeScript = `(() => {
  const props = ['display', 'visibility', 'opacity', 'filter', 'transform', 'overflow',
    'color', 'backgroundColor', 'borderLeftColor', 'borderRightColor',
    'borderTopColor', 'borderBottomColor', 'clipPath'];
  const walk = (el) => {
    const cs = window.getComputedStyle(el);
    const style = {};
    for (const p of props) style[p] = cs[p];
    let rect = null;
    if (el.getClientRects().length > 0) {
      const r = el.getBoundingClientRect();
      rect = {x: r.left + window.scrollX, y: r.top + window.scrollY, width: r.width, height: r.height};
    }
    return {tag: el.tagName, rect, style, children: Array.from(el.children).map(walk)};
  };
  return JSON.stringify(walk(document.documentElement));
})()`

// Chrome captures a URL with a chromedp controlled browser. Every capture
// runs in its own tab so concurrent widths do not share a viewport.
type Chrome struct {
	url    string
	opts   ChromeOptions
	logger *zap.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc

	startOnce     sync.Once
	startErr      error
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewChrome starts a browser allocator bound to ctx. Close releases it.
func NewChrome(ctx context.Context, url string, opts ChromeOptions, logger *zap.Logger) *Chrome {
	if logger == nil {
		logger = zap.NewNop()
	}
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, execOptions(opts)...)
	return &Chrome{
		url:         url,
		opts:        opts,
		logger:      logger.Named("chrome"),
		allocCtx:    allocCtx,
		allocCancel: cancel,
	}
}

func execOptions(opts ChromeOptions) []chromedp.ExecAllocatorOption {
	out := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("hide-scrollbars", true),
	}
	if opts.Headless {
		out = append(out, chromedp.Headless)
	}
	if opts.ExecPath != "" {
		out = append(out, chromedp.ExecPath(opts.ExecPath))
	}
	for _, arg := range opts.Args {
		key, value, found := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if found {
			out = append(out, chromedp.Flag(key, value))
		} else {
			out = append(out, chromedp.Flag(key, true))
		}
	}
	return out
}

// start launches the browser on first use. Tabs are opened from its context.
func (c *Chrome) start() error {
	c.startOnce.Do(func() {
		c.browserCtx, c.browserCancel = chromedp.NewContext(c.allocCtx)
		if err := chromedp.Run(c.browserCtx); err != nil {
			c.startErr = fmt.Errorf("failed to launch browser: %w", err)
			return
		}
		c.logger.Info("Browser launched.", zap.String("url", c.url))
	})
	return c.startErr
}

// Capture loads the page at width and serializes its element tree.
func (c *Chrome) Capture(ctx context.Context, width int) (*dom.Element, error) {
	if err := c.start(); err != nil {
		return nil, err
	}
	tabCtx, cancelTab := chromedp.NewContext(c.browserCtx)
	defer cancelTab()
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		tabCtx, cancel = context.WithTimeout(tabCtx, c.opts.Timeout)
		defer cancel()
	}
	// The tab hangs off the allocator, so tie it to the caller as well.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	start := time.Now()
	var raw string
	err := chromedp.Run(tabCtx,
		emulation.SetDeviceMetricsOverride(int64(width), int64(c.opts.Height), 1, false),
		chromedp.Navigate(c.url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(c.opts.Settle),
		chromedp.Evaluate(serializeScript, &raw),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("capturing %s at width %d: %w", c.url, width, err)
	}

	el, err := decodeJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding snapshot at width %d: %w", width, err)
	}
	c.logger.Debug("Captured snapshot.",
		zap.Int("width", width),
		zap.Int("elements", el.Count()),
		zap.Duration("duration", time.Since(start)))
	return el, nil
}

func decodeJSON(raw string) (*dom.Element, error) {
	var el dom.Element
	if err := json.UnmarshalFromString(raw, &el); err != nil {
		return nil, err
	}
	if el.Tag == "" {
		return nil, fmt.Errorf("snapshot root has no tag")
	}
	return &el, nil
}

// Close shuts the browser down and waits for the process to exit.
func (c *Chrome) Close() error {
	if c.browserCancel != nil {
		c.browserCancel()
	}
	c.allocCancel()
	return nil
}
