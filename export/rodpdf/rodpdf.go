// Package rodpdf renders HTML documents to PDF through a headless Chromium
// instance driven by go-rod.
package rodpdf

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/tebohomanyeli/Timeline-App-Fullstack/config"
	"github.com/tebohomanyeli/Timeline-App-Fullstack/logger"
)

// A4 paper in inches, with the 20px margins the print stylesheet assumes.
const (
	paperWidthIn  = 8.27
	paperHeightIn = 11.69
	marginIn      = 20.0 / 96.0
)

type Renderer struct {
	browserPath string
	noSandbox   bool
	timeout     time.Duration
}

func New(cfg config.PDFConfig) (*Renderer, error) {
	timeout, err := cfg.GetTimeout()
	if err != nil {
		return nil, fmt.Errorf("invalid pdf timeout: %w", err)
	}
	return &Renderer{
		browserPath: cfg.BrowserPath,
		noSandbox:   cfg.NoSandbox,
		timeout:     timeout,
	}, nil
}

// RenderPDF loads the document into a fresh headless browser page and prints
// it. A new browser is launched per render so no state leaks between exports.
func (r *Renderer) RenderPDF(ctx context.Context, html []byte) ([]byte, error) {
	l := launcher.New().Headless(true)
	if r.noSandbox {
		l = l.NoSandbox(true)
	}
	if r.browserPath != "" {
		l = l.Bin(r.browserPath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	defer func() {
		if err := browser.Close(); err != nil {
			logger.Warn("PDF: Failed to close browser", "error", err)
		}
	}()

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	page = page.Timeout(r.timeout)

	if err := page.SetDocumentContent(string(html)); err != nil {
		return nil, fmt.Errorf("failed to set page content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("failed to wait for page load: %w", err)
	}

	stream, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground: true,
		PaperWidth:      f(paperWidthIn),
		PaperHeight:     f(paperHeightIn),
		MarginTop:       f(marginIn),
		MarginBottom:    f(marginIn),
		MarginLeft:      f(marginIn),
		MarginRight:     f(marginIn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to print page: %w", err)
	}
	defer stream.Close()

	pdf, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF stream: %w", err)
	}
	return pdf, nil
}

func f(v float64) *float64 { return &v }
