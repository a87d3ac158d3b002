package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lojinha-pet/billing/internal/app/service/billingevent"
	"github.com/lojinha-pet/billing/pkg/logctx"
	"github.com/lojinha-pet/billing/pkg/response"
	"github.com/lojinha-pet/billing/pkg/types"
)

// @Summary      Payment processor webhook
// @Description  Receives signed checkout.completed and invoice.paid events. Returns 200 when the event was handled or intentionally ignored, 401 on signature failure, 503 when the store is unavailable (the processor retries).
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        X-Processor-Signature header string true "Hex HMAC-SHA256 of the raw body"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v2/billing/webhook/processor [post]
// ApiProcessorWebhook handles payment processor event deliveries.
func ApiProcessorWebhook(ing *billingevent.Ingestor) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logctx.FromGin(c, ing.Logger)
		log.Infow("webhook_received")

		payload, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, "unreadable body"))
			return
		}

		err = ing.Ingest(c.Request.Context(), payload, c.GetHeader(billingevent.SignatureHeader))
		switch {
		case err == nil:
			log.Infow("webhook_handled")
			c.JSON(http.StatusOK, response.OKT[any](nil))
		case errors.Is(err, types.ErrInvalidSignature):
			log.Warnw("webhook_signature_rejected")
			c.JSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, err.Error()))
		case errors.Is(err, types.ErrInvalidPayload):
			log.Warnw("webhook_payload_rejected", "error", err.Error())
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
		default:
			// store failures reject the delivery so the processor retries;
			// the idempotency gate makes the retry safe
			log.Errorw("webhook_handle_error", "error", err.Error())
			c.JSON(http.StatusServiceUnavailable, response.ErrorT[any](response.APIResponseCodeError, "event processing failed"))
		}
	}
}

func RegisterBillingWebhookRoutes(r gin.IRouter, ing *billingevent.Ingestor) {
	// Mount under provided group, expected at "/api/v2/billing/webhook"
	r.POST("/processor", ApiProcessorWebhook(ing))
}
