package shared_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestStructuredErrorMatchesSentinelByCode(t *testing.T) {
	err := shared.NewNotFoundError("invoice_number_counter", "shop_1")

	assert.True(t, errors.Is(err, shared.ErrNotFound))
	assert.False(t, errors.Is(err, shared.ErrInvalidInput))
}

func TestWrappedStructuredErrorStillMatches(t *testing.T) {
	err := fmt.Errorf("loading counter: %w", shared.NewNotFoundError("invoice", "inv_1"))

	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestSentinelMatchesItself(t *testing.T) {
	assert.True(t, errors.Is(shared.ErrNotFound, shared.ErrNotFound))
	assert.False(t, errors.Is(shared.ErrNotFound, shared.ErrTooManyIDs))
}

func TestNonDomainErrorDoesNotMatch(t *testing.T) {
	assert.False(t, errors.Is(errors.New("not found"), shared.ErrNotFound))
}
