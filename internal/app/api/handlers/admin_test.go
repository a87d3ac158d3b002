package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lojinha-pet/billing/internal/app/service/ledger"
	"github.com/lojinha-pet/billing/internal/models"
	"github.com/lojinha-pet/billing/pkg/tool"
)

func seedPayments(t *testing.T, db *gorm.DB) {
	t.Helper()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := []*models.PaymentRecord{
		{TenantKey: "11111111000111", ExternalEventID: "evt_a", Amount: 4990, Currency: "BRL", PaidAt: base, PlanKey: "monthly"},
		{TenantKey: "22222222000122", ExternalEventID: "evt_b", Amount: 49900, Currency: "BRL", PaidAt: base.Add(24 * time.Hour), PlanKey: "annual"},
		{TenantKey: "22222222000122", ExternalEventID: "evt_c", Amount: 4990, Currency: "BRL", PaidAt: base.Add(48 * time.Hour), PlanKey: "mystery", ReviewFlag: true},
	}
	for _, row := range rows {
		row.ID = tool.GenerateUUIDV7()
		require.NoError(t, db.Create(row).Error)
	}
}

func newAdminRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "admin.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.PaymentRecord{}))
	seedPayments(t, db)

	r := gin.New()
	RegisterAdminRoutes(r.Group("/api/v1/admin"), ledger.NewService(db, zap.NewNop().Sugar()))
	return r
}

func listPayments(t *testing.T, r *gin.Engine, body map[string]any) *ledger.ScanPaymentsResponse {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/list_payments", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data ledger.ScanPaymentsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return &envelope.Data
}

func TestApiListPayments_DefaultSort(t *testing.T) {
	r := newAdminRouter(t)

	res := listPayments(t, r, map[string]any{"size": 10})
	require.EqualValues(t, 3, res.Total)
	require.Len(t, res.Items, 3)
	// newest first
	require.Equal(t, "evt_c", res.Items[0].ExternalEventID)
	require.Equal(t, "evt_a", res.Items[2].ExternalEventID)
}

func TestApiListPayments_FilterByTenant(t *testing.T) {
	r := newAdminRouter(t)

	res := listPayments(t, r, map[string]any{
		"size":    10,
		"filters": []map[string]any{{"field": "tenant_key", "operator": "eq", "values": []any{"22222222000122"}}},
	})
	require.EqualValues(t, 2, res.Total)
}

func TestApiListPayments_ReviewFlagged(t *testing.T) {
	r := newAdminRouter(t)

	res := listPayments(t, r, map[string]any{
		"size":    10,
		"filters": []map[string]any{{"field": "review_flag", "operator": "eq", "values": []any{true}}},
	})
	require.EqualValues(t, 1, res.Total)
	require.Equal(t, "evt_c", res.Items[0].ExternalEventID)
	require.True(t, res.Items[0].ReviewFlag)
}

func TestApiListPayments_Pagination(t *testing.T) {
	r := newAdminRouter(t)

	res := listPayments(t, r, map[string]any{"size": 2, "from": 2, "sort_by": "paid_at", "sort_order": "asc"})
	require.EqualValues(t, 3, res.Total)
	require.Len(t, res.Items, 1)
	require.Equal(t, "evt_c", res.Items[0].ExternalEventID)
}
