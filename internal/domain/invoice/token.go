package invoice

import (
	"fmt"
	"strings"

	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/shared"
)

// EntityType is the token segment identifying this service's entities
// on the shared render topics.
const EntityType = "invoice"

// ContentKindPDF is the content kind requested for invoice rendering
const ContentKindPDF = "pdf"

// RenderToken correlates an asynchronously arriving render response
// back to the entity that requested it. It is the only state kept for
// an outstanding render request: the correlation is stateless, fully
// encoded in the token string "<entity-type>/<content-kind>/<id>".
type RenderToken struct {
	EntityType  string
	ContentKind string
	EntityID    string
}

// String encodes the token for the wire
func (t RenderToken) String() string {
	return fmt.Sprintf("%s/%s/%s", t.EntityType, t.ContentKind, t.EntityID)
}

// NewRenderToken builds the token for one invoice render round-trip
func NewRenderToken(invoiceID string) RenderToken {
	return RenderToken{EntityType: EntityType, ContentKind: ContentKindPDF, EntityID: invoiceID}
}

// ParseRenderToken decodes a correlation token. The id segment may
// itself contain slashes, so only the first two separators split.
func ParseRenderToken(s string) (RenderToken, error) {
	parts := strings.SplitN(s, "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return RenderToken{}, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("malformed render correlation token %q", s))
	}
	return RenderToken{EntityType: parts[0], ContentKind: parts[1], EntityID: parts[2]}, nil
}
