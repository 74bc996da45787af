package invoice

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/shared"
)

// NumberCounter is the durable per-shop counter row. It is created on
// first allocation, mutated on every allocation and never deleted by
// this service. UpdatedAt is the monotonic ordinate used to read the
// most recent row.
type NumberCounter struct {
	ShopID        string    `json:"shop_id"`
	Counter       int64     `json:"counter"`
	InvoiceNumber string    `json:"invoice_number"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// numberVerb matches one sprintf-style integer conversion. Shops
// configure patterns in sprintf-js style, so %i is accepted and
// normalized to Go's %d.
var numberVerb = regexp.MustCompile(`%0?\d*[di]`)

// FormatNumber applies a shop's number pattern to a counter value.
// The pattern must contain exactly one integer conversion specifier
// (zero padding honored, %% allowed as a literal); anything else is a
// configuration error.
func FormatNumber(pattern string, counter int64) (string, error) {
	stripped := strings.ReplaceAll(pattern, "%%", "")
	verbs := numberVerb.FindAllString(stripped, -1)
	if len(verbs) != 1 {
		return "", shared.ErrInvalidPattern
	}
	if residual := strings.Count(stripped, "%"); residual != 1 {
		return "", shared.ErrInvalidPattern
	}

	normalized := pattern
	if strings.HasSuffix(verbs[0], "i") {
		goVerb := verbs[0][:len(verbs[0])-1] + "d"
		normalized = strings.Replace(pattern, verbs[0], goVerb, 1)
	}
	return fmt.Sprintf(normalized, counter), nil
}
