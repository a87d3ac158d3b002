package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lojinha-pet/billing/internal/app/service/ledger"
	"github.com/lojinha-pet/billing/pkg/response"
	"github.com/lojinha-pet/billing/pkg/types"
)

type ListPaymentsRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

// @Summary      List Payments (Admin)
// @Description  Retrieves a paginated and filterable list of ledger rows, including review-flagged fallback extensions.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ListPaymentsRequest true "List payments request with filters, pagination, and sorting"
// @Success      200  {object}  handlers.RespListPayments
// @Router       /api/v1/admin/list_payments [post]
func ApiListPayments(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ListPaymentsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.ScanPayments(c.Request.Context(), &ledger.ScanPaymentsRequest{
			Filters: req.Filters, From: req.From, Size: req.Size, SortBy: req.SortBy, SortOrder: req.SortOrder,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterAdminRoutes(r gin.IRouter, led *ledger.Service) {
	r.POST("/list_payments", ApiListPayments(led))
}
