package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	mw "github.com/lojinha-pet/billing/internal/app/api/middleware"
	"github.com/lojinha-pet/billing/internal/app/service/cancellation"
	"github.com/lojinha-pet/billing/internal/app/service/checkout"
	subsvc "github.com/lojinha-pet/billing/internal/app/service/subscription"
	"github.com/lojinha-pet/billing/pkg/response"
	"github.com/lojinha-pet/billing/pkg/types"
)

// @Summary      Subscription status
// @Description  Returns the caller tenant's lifecycle status, bootstrapping a 30-day trial on first contact.
// @Tags         Subscription
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.RespSubscriptionStatus
// @Router       /api/v1/subscription/status [get]
func ApiGetSubscriptionStatus(sub *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantKey := mw.TenantKeyFromGin(c)
		if tenantKey == "" {
			c.JSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, types.ErrUnauthenticated.Error()))
			return
		}

		rec, err := sub.GetOrInitTrial(c.Request.Context(), tenantKey)
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, "failed to load subscription"))
			return
		}

		c.JSON(http.StatusOK, response.OKT(&types.TenantSubscriptionInfo{
			Status:         rec.Status,
			ValidUntil:     rec.ValidUntil,
			TrialStartedAt: rec.TrialStartedAt,
			CurrentPlanKey: rec.CurrentPlanKey,
		}))
	}
}

// @Summary      Schedule cancellation
// @Description  Asks the payment processor to stop auto-renewal at period end. Local status keeps deriving from valid_until.
// @Tags         Subscription
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.RespCancellation
// @Router       /api/v1/subscription/cancel [post]
func ApiRequestCancellation(svc *cancellation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantKey := mw.TenantKeyFromGin(c)

		res, err := svc.RequestCancelAtPeriodEnd(c.Request.Context(), tenantKey)
		if err != nil {
			if errors.Is(err, types.ErrNoActiveSubscription) {
				c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, "failed to schedule cancellation"))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

type CreateCheckoutSessionRequest struct {
	PlanKey types.PlanKey `json:"plan_key"`
}

type CreateCheckoutSessionResponse struct {
	CheckoutURL string `json:"checkout_url"`
}

// @Summary      Create checkout session
// @Description  Returns the processor's hosted payment page URL for the requested plan.
// @Tags         Subscription
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateCheckoutSessionRequest true "Plan to subscribe to"
// @Success      200  {object}  handlers.RespCheckoutSession
// @Router       /api/v1/subscription/checkout [post]
func ApiCreateCheckoutSession(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateCheckoutSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		url, err := svc.CreateSession(c.Request.Context(), mw.TenantKeyFromGin(c), req.PlanKey)
		if err != nil {
			if errors.Is(err, types.ErrUnknownPlan) {
				c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, "failed to create checkout session"))
			return
		}
		c.JSON(http.StatusOK, response.OKT(&CreateCheckoutSessionResponse{CheckoutURL: url}))
	}
}

func RegisterSubscriptionRoutes(r gin.IRouter, sub *subsvc.Service, cancel *cancellation.Service, co *checkout.Service) {
	r.GET("/status", ApiGetSubscriptionStatus(sub))
	r.POST("/checkout", ApiCreateCheckoutSession(co))
	r.POST("/cancel", mw.RequireAdmin(), ApiRequestCancellation(cancel))
}
