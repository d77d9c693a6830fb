// Package playwrightcapture implements tab capture with playwright-go.
//
// Playwright has no screencast push protocol over its Go API, so frames are
// produced by a JPEG screenshot loop paced at the requested rate. Useful where
// a managed browser install (playwright install) is preferred over a system
// Chrome.
package playwrightcapture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/ports"
)

// Capturer implements ports.ScreenCapturer on a playwright-managed browser.
type Capturer struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page

	mu     sync.Mutex
	frames chan ports.ScreenFrame
	stop   chan struct{}
	active bool
}

// New creates a new Capturer.
func New() *Capturer {
	return &Capturer{}
}

// Launch starts a playwright-managed Chromium instance.
func (c *Capturer) Launch(ctx context.Context, opts ports.CaptureOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		pw.Stop()
		return fmt.Errorf("launch browser: %w", err)
	}

	pageOpts := playwright.BrowserNewPageOptions{}
	if opts.ViewportWidth > 0 && opts.ViewportHeight > 0 {
		pageOpts.Viewport = &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		}
	}
	if opts.UserAgent != "" {
		pageOpts.UserAgent = playwright.String(opts.UserAgent)
	}

	page, err := browser.NewPage(pageOpts)
	if err != nil {
		browser.Close()
		pw.Stop()
		return fmt.Errorf("new page: %w", err)
	}

	c.pw = pw
	c.browser = browser
	c.page = page
	return nil
}

// Navigate loads the specified URL.
func (c *Capturer) Navigate(url string) error {
	if c.page == nil {
		return fmt.Errorf("playwrightcapture: navigate before launch")
	}
	if _, err := c.page.Goto(url); err != nil {
		return fmt.Errorf("goto %s: %w", url, err)
	}
	return nil
}

// StartScreencast begins the screenshot loop.
func (c *Capturer) StartScreencast(quality int, maxFPS float64) (<-chan ports.ScreenFrame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active {
		return nil, fmt.Errorf("screencast already active")
	}
	if c.page == nil {
		return nil, fmt.Errorf("playwrightcapture: screencast before launch")
	}
	if maxFPS <= 0 {
		maxFPS = 10
	}

	c.frames = make(chan ports.ScreenFrame, 100)
	c.stop = make(chan struct{})
	c.active = true

	go c.loop(quality, maxFPS, c.frames, c.stop)
	return c.frames, nil
}

func (c *Capturer) loop(quality int, maxFPS float64, frames chan<- ports.ScreenFrame, stop <-chan struct{}) {
	defer close(frames)

	interval := time.Duration(float64(time.Second) / maxFPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	startTime := time.Now()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			data, err := c.page.Screenshot(playwright.PageScreenshotOptions{
				Type:    playwright.ScreenshotTypeJpeg,
				Quality: playwright.Int(quality),
			})
			if err != nil {
				// Page gone, end the stream
				return
			}

			frame := ports.ScreenFrame{
				TimestampMs: int(time.Since(startTime).Milliseconds()),
				Data:        data,
			}
			select {
			case frames <- frame:
			default:
				// Consumer behind, skip frame
			}
		}
	}
}

// StopScreencast ends the screenshot loop.
func (c *Capturer) StopScreencast() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.active {
		return nil
	}
	c.active = false
	close(c.stop)
	return nil
}

// Close shuts down the browser and the playwright driver.
func (c *Capturer) Close() error {
	c.StopScreencast()

	if c.browser != nil {
		c.browser.Close()
		c.browser = nil
	}
	if c.pw != nil {
		c.pw.Stop()
		c.pw = nil
	}
	return nil
}

var _ ports.ScreenCapturer = (*Capturer)(nil)
