// Package chromecapture implements tab capture using chromedp.
//
// Frames arrive over the DevTools screencast protocol as JPEG images and are
// forwarded on a bounded channel; when the consumer falls behind, frames are
// dropped rather than buffered without limit.
package chromecapture

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/ports"
)

// Capturer implements ports.ScreenCapturer using chromedp.
type Capturer struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc

	screencastChan   chan ports.ScreenFrame
	screencastMu     sync.Mutex
	screencastActive bool
}

// New creates a new Capturer.
func New() *Capturer {
	return &Capturer{}
}

// Launch starts the browser with the given options.
func (c *Capturer) Launch(ctx context.Context, opts ports.CaptureOptions) error {
	chromedpOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("hide-scrollbars", true),
	}

	if opts.Headless {
		chromedpOpts = append(chromedpOpts, chromedp.Flag("headless", "new"))
	}

	// Resolve browser path: option → CHROME_PATH env → system defaults
	browserPath := ResolveBrowserPath(opts.BrowserPath)
	if browserPath == "" {
		return fmt.Errorf("chrome not found: install Chrome/Chromium, set CHROME_PATH, or pass an explicit browser path")
	}
	chromedpOpts = append(chromedpOpts, chromedp.ExecPath(browserPath))

	if opts.UserAgent != "" {
		chromedpOpts = append(chromedpOpts, chromedp.UserAgent(opts.UserAgent))
	}

	if opts.ViewportWidth > 0 && opts.ViewportHeight > 0 {
		chromedpOpts = append(chromedpOpts,
			chromedp.WindowSize(opts.ViewportWidth, opts.ViewportHeight),
			chromedp.Flag("window-size", fmt.Sprintf("%d,%d", opts.ViewportWidth, opts.ViewportHeight)))
	}

	// Flags for server/container execution
	chromedpOpts = append(chromedpOpts,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("no-zygote", true),
	)

	c.allocCtx, c.allocCancel = chromedp.NewExecAllocator(ctx, chromedpOpts...)
	c.ctx, c.cancel = chromedp.NewContext(c.allocCtx)

	if opts.ViewportWidth > 0 && opts.ViewportHeight > 0 {
		if err := chromedp.Run(c.ctx,
			emulation.SetDeviceMetricsOverride(
				int64(opts.ViewportWidth), int64(opts.ViewportHeight), 1, false),
		); err != nil {
			return fmt.Errorf("set device metrics: %w", err)
		}
	}

	return nil
}

// Navigate loads the specified URL.
func (c *Capturer) Navigate(url string) error {
	return chromedp.Run(c.ctx, chromedp.Navigate(url))
}

// StartScreencast begins receiving frames from the page.
//
// maxFPS caps the rate of forwarded frames; the protocol pushes frames on
// repaint, so frames arriving faster than the cap are dropped.
func (c *Capturer) StartScreencast(quality int, maxFPS float64) (<-chan ports.ScreenFrame, error) {
	c.screencastMu.Lock()
	defer c.screencastMu.Unlock()

	if c.screencastActive {
		return nil, fmt.Errorf("screencast already active")
	}

	c.screencastChan = make(chan ports.ScreenFrame, 100)
	c.screencastActive = true

	startTime := time.Now()
	var minInterval time.Duration
	if maxFPS > 0 {
		minInterval = time.Duration(float64(time.Second) / maxFPS)
	}
	var lastForwarded time.Time

	chromedp.ListenTarget(c.ctx, func(ev interface{}) {
		e, ok := ev.(*page.EventScreencastFrame)
		if !ok {
			return
		}

		// Acknowledge even dropped frames or the protocol stalls.
		go chromedp.Run(c.ctx, page.ScreencastFrameAck(e.SessionID))

		now := time.Now()
		if minInterval > 0 && !lastForwarded.IsZero() && now.Sub(lastForwarded) < minInterval {
			return
		}

		data, err := base64.StdEncoding.DecodeString(e.Data)
		if err != nil {
			return
		}

		frame := ports.ScreenFrame{
			TimestampMs: int(time.Since(startTime).Milliseconds()),
			Data:        data,
		}

		c.screencastMu.Lock()
		if c.screencastActive {
			select {
			case c.screencastChan <- frame:
				lastForwarded = now
			default:
				// Consumer behind, skip frame
			}
		}
		c.screencastMu.Unlock()
	})

	err := chromedp.Run(c.ctx,
		page.StartScreencast().
			WithFormat(page.ScreencastFormatJpeg).
			WithQuality(int64(quality)).
			WithEveryNthFrame(1),
	)
	if err != nil {
		c.screencastActive = false
		close(c.screencastChan)
		return nil, fmt.Errorf("start screencast: %w", err)
	}

	return c.screencastChan, nil
}

// StopScreencast stops the screencast and closes the frame channel.
func (c *Capturer) StopScreencast() error {
	c.screencastMu.Lock()
	defer c.screencastMu.Unlock()

	if !c.screencastActive {
		return nil
	}
	c.screencastActive = false

	// Bounded stop so a wedged browser cannot hang teardown
	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	chromedp.Run(stopCtx, page.StopScreencast())

	close(c.screencastChan)
	return nil
}

// Close shuts down the browser.
func (c *Capturer) Close() error {
	c.StopScreencast()

	if c.cancel != nil {
		c.cancel()
	}

	// Give Chrome a moment to shut down gracefully, then force kill
	time.Sleep(100 * time.Millisecond)

	if c.allocCancel != nil {
		c.allocCancel()
	}

	return nil
}

var _ ports.ScreenCapturer = (*Capturer)(nil)
