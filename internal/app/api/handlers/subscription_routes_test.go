package handlers

import (
	"bytes"
	"context"
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

	"github.com/lojinha-pet/billing/internal/app/service/cancellation"
	"github.com/lojinha-pet/billing/internal/app/service/checkout"
	subsvc "github.com/lojinha-pet/billing/internal/app/service/subscription"
	"github.com/lojinha-pet/billing/internal/models"
	"github.com/lojinha-pet/billing/internal/platform/processor"
	"github.com/lojinha-pet/billing/pkg/config"
	"github.com/lojinha-pet/billing/pkg/types"
)

type stubProcessorClient struct {
	cancelled []string
}

func (s *stubProcessorClient) CancelAtPeriodEnd(_ context.Context, ref string) error {
	s.cancelled = append(s.cancelled, ref)
	return nil
}

func (s *stubProcessorClient) CreateCheckoutSession(_ context.Context, req *processor.CheckoutSessionRequest) (*processor.CheckoutSession, error) {
	return &processor.CheckoutSession{URL: "https://pay.example.com/s/" + req.ItemID}, nil
}

// asTenant stands in for the auth middleware in route tests.
func asTenant(tenantKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tenantKey != "" {
			c.Set("tenant_key", tenantKey)
		}
		c.Next()
	}
}

func newSubscriptionTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "routes.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.SubscriptionRecord{}, &models.PaymentRecord{}))
	return db
}

func TestApiGetSubscriptionStatus_BootstrapsTrial(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newSubscriptionTestDB(t)
	log := zap.NewNop().Sugar()

	r := gin.New()
	r.GET("/api/v1/subscription/status", asTenant("12345678000190"), ApiGetSubscriptionStatus(subsvc.NewService(db, log)))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/subscription/status", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), string(types.SubscriptionStatusActive))

	var rec models.SubscriptionRecord
	require.NoError(t, db.Where("tenant_key = ?", "12345678000190").First(&rec).Error)
	require.NotNil(t, rec.TrialStartedAt)
}

func TestApiGetSubscriptionStatus_Unauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newSubscriptionTestDB(t)
	log := zap.NewNop().Sugar()

	r := gin.New()
	r.GET("/api/v1/subscription/status", asTenant(""), ApiGetSubscriptionStatus(subsvc.NewService(db, log)))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/subscription/status", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestApiRequestCancellation_NoExternalSubscription(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newSubscriptionTestDB(t)
	log := zap.NewNop().Sugar()
	sub := subsvc.NewService(db, log)

	// trial-only tenant: no processor subscription to cancel
	_, err := sub.GetOrInitTrial(context.Background(), "12345678000190")
	require.NoError(t, err)

	proc := &stubProcessorClient{}
	r := gin.New()
	r.POST("/api/v1/subscription/cancel", asTenant("12345678000190"), ApiRequestCancellation(cancellation.NewService(sub, proc, log)))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscription/cancel", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, proc.cancelled)
}

func TestApiRequestCancellation_SchedulesAtPeriodEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newSubscriptionTestDB(t)
	log := zap.NewNop().Sugar()
	sub := subsvc.NewService(db, log)

	validUntil := time.Now().Add(20 * 24 * time.Hour).UTC().Truncate(time.Second)
	subRef := "sub_42"
	require.NoError(t, db.Create(&models.SubscriptionRecord{
		ID:                      "0214aaaa-0000-7000-8000-000000000001",
		TenantKey:               "12345678000190",
		Status:                  types.SubscriptionStatusActive,
		ValidUntil:              validUntil,
		ExternalSubscriptionRef: &subRef,
	}).Error)

	proc := &stubProcessorClient{}
	r := gin.New()
	r.POST("/api/v1/subscription/cancel", asTenant("12345678000190"), ApiRequestCancellation(cancellation.NewService(sub, proc, log)))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscription/cancel", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []string{"sub_42"}, proc.cancelled)

	// local state is untouched, renewal events keep driving it
	var rec models.SubscriptionRecord
	require.NoError(t, db.Where("tenant_key = ?", "12345678000190").First(&rec).Error)
	require.Equal(t, types.SubscriptionStatusActive, rec.Status)
	require.Equal(t, validUntil.Unix(), rec.ValidUntil.Unix())
}

func TestApiCreateCheckoutSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := zap.NewNop().Sugar()
	cfg := &config.Config{Plans: []*config.PlanItem{{PlanKey: types.PlanKeyMonthly, ProcessorItemID: "item_monthly"}}}

	r := gin.New()
	r.POST("/api/v1/subscription/checkout", asTenant("12345678000190"), ApiCreateCheckoutSession(checkout.NewService(cfg, &stubProcessorClient{}, log)))

	body := bytes.NewBufferString(`{"plan_key":"monthly"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscription/checkout", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "https://pay.example.com/s/item_monthly")
}

func TestApiCreateCheckoutSession_UnknownPlan(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := zap.NewNop().Sugar()
	cfg := &config.Config{Plans: []*config.PlanItem{{PlanKey: types.PlanKeyMonthly, ProcessorItemID: "item_monthly"}}}

	r := gin.New()
	r.POST("/api/v1/subscription/checkout", asTenant("12345678000190"), ApiCreateCheckoutSession(checkout.NewService(cfg, &stubProcessorClient{}, log)))

	body := bytes.NewBufferString(`{"plan_key":"weekly"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscription/checkout", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
