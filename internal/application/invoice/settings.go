package invoice

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/resource"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/infrastructure/printing"
)

// Shop setting keys read from the shop payload. A shop carries its
// settings as a list of {id, value} string pairs; any key a shop does
// not set falls back to the service default, then to the compiled
// default.
const (
	settingNumberPattern   = "invoice_number_pattern"
	settingNumberStart     = "invoice_number_start"
	settingNumberIncrement = "invoice_number_increment"
	settingHTMLBucket      = "invoice_html_bucket"
	settingPDFBucket       = "invoice_pdf_bucket"
	settingDisableHTML     = "invoice_html_storage_disabled"
	settingEmailProvider   = "invoice_email_provider"
	settingEmailSubject    = "invoice_email_subject"
	settingEmailCC         = "invoice_email_cc"
	settingPuppeteer       = "invoice_puppeteer_options"
)

// Defaults are the service-level settings a shop may override. They
// are populated from configuration at bootstrap.
type Defaults struct {
	NumberPattern   string
	NumberStart     int64
	NumberIncrement int64
	HTMLBucket      string
	PDFBucket       string
	DisableHTML     bool
	EmailProvider   string
	EmailSubject    string
	EmailCC         []string
	Puppeteer       printing.PuppeteerOptions
}

// numberSettings is the allocator's view of a shop's configuration
type numberSettings struct {
	Pattern   string
	Start     int64
	Increment int64
}

// renderSettings is the saga's view of a shop's configuration
type renderSettings struct {
	HTMLBucket    string
	PDFBucket     string
	DisableHTML   bool
	EmailProvider string
	EmailSubject  string
	EmailCC       []string
	Puppeteer     printing.PuppeteerOptions
}

// shopSetting reads one setting value from a shop payload
func shopSetting(shop resource.Entity, key string) (string, bool) {
	if shop == nil {
		return "", false
	}
	list, ok := shop["settings"].([]any)
	if !ok {
		return "", false
	}
	for _, item := range list {
		entry, ok := item.(resource.Entity)
		if !ok {
			continue
		}
		if id, _ := entry["id"].(string); id == key {
			value, _ := entry["value"].(string)
			return value, true
		}
	}
	return "", false
}

func shopSettingInt(shop resource.Entity, key string, fallback int64) int64 {
	raw, ok := shopSetting(shop, key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func shopSettingBool(shop resource.Entity, key string, fallback bool) bool {
	raw, ok := shopSetting(shop, key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return parsed
}

// numberSettingsFor resolves the numbering settings for a shop with
// shop setting > service default > compiled default precedence. A
// non-positive increment falls back to 1.
func numberSettingsFor(shop resource.Entity, d Defaults) numberSettings {
	out := numberSettings{
		Pattern:   d.NumberPattern,
		Start:     d.NumberStart,
		Increment: d.NumberIncrement,
	}
	if pattern, ok := shopSetting(shop, settingNumberPattern); ok && pattern != "" {
		out.Pattern = pattern
	}
	out.Start = shopSettingInt(shop, settingNumberStart, out.Start)
	out.Increment = shopSettingInt(shop, settingNumberIncrement, out.Increment)

	if out.Pattern == "" {
		out.Pattern = "invoice-%010d"
	}
	if out.Increment <= 0 {
		out.Increment = 1
	}
	return out
}

// renderSettingsFor resolves the rendering and dispatch settings for a
// shop with the same three-level precedence.
func renderSettingsFor(shop resource.Entity, d Defaults) renderSettings {
	out := renderSettings{
		HTMLBucket:    d.HTMLBucket,
		PDFBucket:     d.PDFBucket,
		DisableHTML:   d.DisableHTML,
		EmailProvider: d.EmailProvider,
		EmailSubject:  d.EmailSubject,
		EmailCC:       d.EmailCC,
		Puppeteer:     d.Puppeteer,
	}
	if bucket, ok := shopSetting(shop, settingHTMLBucket); ok && bucket != "" {
		out.HTMLBucket = bucket
	}
	if bucket, ok := shopSetting(shop, settingPDFBucket); ok && bucket != "" {
		out.PDFBucket = bucket
	}
	out.DisableHTML = shopSettingBool(shop, settingDisableHTML, out.DisableHTML)
	if provider, ok := shopSetting(shop, settingEmailProvider); ok && provider != "" {
		out.EmailProvider = provider
	}
	if subject, ok := shopSetting(shop, settingEmailSubject); ok && subject != "" {
		out.EmailSubject = subject
	}
	if cc, ok := shopSetting(shop, settingEmailCC); ok && cc != "" {
		parts := strings.Split(cc, ",")
		out.EmailCC = make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out.EmailCC = append(out.EmailCC, trimmed)
			}
		}
	}
	if raw, ok := shopSetting(shop, settingPuppeteer); ok && raw != "" {
		opts := out.Puppeteer
		if err := json.Unmarshal([]byte(raw), &opts); err == nil {
			out.Puppeteer = opts
		}
	}

	if out.HTMLBucket == "" {
		out.HTMLBucket = "invoices-html"
	}
	if out.PDFBucket == "" {
		out.PDFBucket = "invoices-pdf"
	}
	if out.EmailSubject == "" {
		out.EmailSubject = "Invoice [InvoiceNumber]"
	}
	return out
}
