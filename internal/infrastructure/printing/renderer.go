// Package printing renders invoice HTML bodies to PDF. The upstream
// renderer speaks puppeteer-style options, so the option shape here
// mirrors that contract and is mapped onto Chrome DevTools print
// parameters.
package printing

import (
	"context"
	"time"
)

// PuppeteerOptions is the option shape carried in render requests and
// shop settings. Zero values fall back to sane A4 portrait defaults.
type PuppeteerOptions struct {
	// Format is a named paper size: a4, a5, a3, letter, legal
	Format string `json:"format,omitempty"`
	// Landscape flips the page orientation
	Landscape bool `json:"landscape,omitempty"`
	// PrintBackground prints background graphics
	PrintBackground bool `json:"printBackground,omitempty"`
	// Scale of the rendering, 0 means 1.0
	Scale float64 `json:"scale,omitempty"`
	// MarginMM are the page margins in millimeters
	MarginMM Margins `json:"margin_mm,omitempty"`
}

// Margins in millimeters
type Margins struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// RenderInput contains the parameters for one HTML to PDF conversion
type RenderInput struct {
	HTML    string
	Title   string
	Options PuppeteerOptions
	// Timeout overrides the renderer default
	Timeout time.Duration
}

// RenderOutput contains the produced PDF
type RenderOutput struct {
	PDFData        []byte
	RenderDuration time.Duration
}

// PDFRenderer converts HTML to PDF
type PDFRenderer interface {
	Render(ctx context.Context, in *RenderInput) (*RenderOutput, error)
	Close() error
}

// RenderError represents an error during PDF rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout = "RENDER_TIMEOUT"
	ErrCodeRenderFailed  = "RENDER_FAILED"
	ErrCodeInvalidHTML   = "INVALID_HTML"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{Code: code, Message: message, Cause: cause}
}

// paper dimensions in millimeters, width x height portrait
var paperSizes = map[string][2]float64{
	"a3":     {297, 420},
	"a4":     {210, 297},
	"a5":     {148, 210},
	"letter": {215.9, 279.4},
	"legal":  {215.9, 355.6},
}

// dimensionsMM resolves a named format, defaulting to A4
func dimensionsMM(format string) (width, height float64) {
	if dims, ok := paperSizes[format]; ok {
		return dims[0], dims[1]
	}
	return paperSizes["a4"][0], paperSizes["a4"][1]
}
