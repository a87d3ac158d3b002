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

	"github.com/lojinha-pet/billing/internal/app/service/billingevent"
	"github.com/lojinha-pet/billing/internal/app/service/eventlog"
	"github.com/lojinha-pet/billing/internal/app/service/ledger"
	subsvc "github.com/lojinha-pet/billing/internal/app/service/subscription"
	"github.com/lojinha-pet/billing/internal/models"
	"github.com/lojinha-pet/billing/pkg/config"
)

const webhookTestSecret = "whsec_handler_test"

func newWebhookRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	return newWebhookRouterWithModels(t, &models.SubscriptionRecord{}, &models.PaymentRecord{}, &models.BillingEventLog{})
}

// newWebhookRouterWithModels migrates only the given models so tests can
// simulate a store where some table is unavailable.
func newWebhookRouterWithModels(t *testing.T, migrate ...any) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	// busy_timeout keeps the async event log writers from losing writes to
	// sqlite's single writer lock
	dsn := filepath.Join(t.TempDir(), "webhook.db") + "?_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(migrate...))

	log := zap.NewNop().Sugar()
	cfg := &config.Config{Webhook: config.WebhookConfig{SharedSecret: webhookTestSecret}}
	evlog := eventlog.NewService(db, log)
	ing := billingevent.NewIngestor(cfg, db, subsvc.NewService(db, log), ledger.NewService(db, log), evlog, log)
	// drain pending log writes before the temp DB is torn down
	t.Cleanup(evlog.Flush)

	r := gin.New()
	RegisterBillingWebhookRoutes(r.Group("/api/v2/billing/webhook"), ing)
	return r, db
}

func postWebhook(r *gin.Engine, payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v2/billing/webhook/processor", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(billingevent.SignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func checkoutCompletedPayload(t *testing.T, eventID, tenantKey string) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"id":         eventID,
		"type":       billingevent.EventKindCheckoutCompleted,
		"created_at": time.Now().Unix(),
		"data": map[string]any{
			"customer_ref":     "cus_1",
			"subscription_ref": "sub_1",
			"plan_key":         "monthly",
			"amount_total":     4990,
			"currency":         "BRL",
			"metadata":         map[string]string{"tenant_key": tenantKey},
		},
	})
	require.NoError(t, err)
	return payload
}

func TestApiProcessorWebhook_BadSignature(t *testing.T) {
	r, db := newWebhookRouter(t)
	payload := checkoutCompletedPayload(t, "evt_1", "12345678000190")

	w := postWebhook(r, payload, "deadbeef")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var n int64
	require.NoError(t, db.Model(&models.PaymentRecord{}).Count(&n).Error)
	require.Zero(t, n)
}

func TestApiProcessorWebhook_MissingSignature(t *testing.T) {
	r, _ := newWebhookRouter(t)
	payload := checkoutCompletedPayload(t, "evt_1", "12345678000190")

	w := postWebhook(r, payload, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestApiProcessorWebhook_InvalidPayload(t *testing.T) {
	r, _ := newWebhookRouter(t)
	payload := []byte(`{"id":`)

	w := postWebhook(r, payload, billingevent.Sign(webhookTestSecret, payload))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApiProcessorWebhook_CheckoutCompleted(t *testing.T) {
	r, db := newWebhookRouter(t)
	payload := checkoutCompletedPayload(t, "evt_1", "12345678000190")

	w := postWebhook(r, payload, billingevent.Sign(webhookTestSecret, payload))
	require.Equal(t, http.StatusOK, w.Code)

	var rec models.SubscriptionRecord
	require.NoError(t, db.Where("tenant_key = ?", "12345678000190").First(&rec).Error)
	require.NotNil(t, rec.CurrentPlanKey)

	// redelivery of the same event id is acknowledged without a second row
	w = postWebhook(r, payload, billingevent.Sign(webhookTestSecret, payload))
	require.Equal(t, http.StatusOK, w.Code)

	var n int64
	require.NoError(t, db.Model(&models.PaymentRecord{}).Count(&n).Error)
	require.EqualValues(t, 1, n)
}

func TestApiProcessorWebhook_StoreFailure(t *testing.T) {
	// the ledger table is missing, so applying the event fails at the store;
	// the delivery must be rejected with a retryable status
	r, db := newWebhookRouterWithModels(t, &models.SubscriptionRecord{}, &models.BillingEventLog{})
	payload := checkoutCompletedPayload(t, "evt_1", "12345678000190")

	w := postWebhook(r, payload, billingevent.Sign(webhookTestSecret, payload))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var n int64
	require.NoError(t, db.Model(&models.SubscriptionRecord{}).Count(&n).Error)
	require.Zero(t, n, "a failed apply must not leave a subscription record behind")
}
