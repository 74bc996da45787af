package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/invoice"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/shared"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/infrastructure/resourceclient"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	invoices map[string]*invoice.Invoice
}

func (r *stubRepo) FindByID(_ context.Context, id string) (*invoice.Invoice, error) {
	if inv, ok := r.invoices[id]; ok {
		return inv, nil
	}
	return nil, shared.NewNotFoundError("invoice", id)
}

func (r *stubRepo) Upsert(_ context.Context, inv *invoice.Invoice) error {
	r.invoices[inv.ID] = inv
	return nil
}

type stubSubmitter struct {
	submitted []*invoice.Invoice
	err       error
}

func (s *stubSubmitter) SubmitRender(_ context.Context, invoices []*invoice.Invoice, _ *resourceclient.Subject) error {
	if s.err != nil {
		return s.err
	}
	s.submitted = append(s.submitted, invoices...)
	return nil
}

func setupTestRouter(repo *stubRepo, submitter *stubSubmitter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewInvoiceHandler(repo, submitter)

	r := gin.New()
	r.GET("/api/v1/invoices/:id", h.Get)
	r.PUT("/api/v1/invoices/:id", h.Put)
	r.POST("/api/v1/invoices/:id/render", h.Render)
	return r
}

func TestGetInvoice(t *testing.T) {
	repo := &stubRepo{invoices: map[string]*invoice.Invoice{
		"inv_1": {ID: "inv_1", ShopID: "shop_1", InvoiceNumber: "INV-100"},
	}}
	r := setupTestRouter(repo, &stubSubmitter{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/invoices/inv_1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/invoices/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPutInvoice(t *testing.T) {
	repo := &stubRepo{invoices: map[string]*invoice.Invoice{}}
	r := setupTestRouter(repo, &stubSubmitter{})

	body := `{"shop_id":"shop_1","customer_id":"customer_1"}`
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/v1/invoices/inv_9", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)

	stored, ok := repo.invoices["inv_9"]
	require.True(t, ok)
	assert.Equal(t, "shop_1", stored.ShopID)
}

func TestRenderAcceptsAndSubmits(t *testing.T) {
	repo := &stubRepo{invoices: map[string]*invoice.Invoice{
		"inv_1": {ID: "inv_1", ShopID: "shop_1"},
	}}
	submitter := &stubSubmitter{}
	r := setupTestRouter(repo, submitter)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/invoices/inv_1/render", nil))
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, submitter.submitted, 1)
	assert.Equal(t, "inv_1", submitter.submitted[0].ID)
}

func TestRenderUnknownInvoice(t *testing.T) {
	r := setupTestRouter(&stubRepo{invoices: map[string]*invoice.Invoice{}}, &stubSubmitter{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/invoices/nope/render", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
