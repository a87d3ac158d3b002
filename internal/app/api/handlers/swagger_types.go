package handlers

import (
	"github.com/lojinha-pet/billing/internal/app/service/cancellation"
	"github.com/lojinha-pet/billing/internal/app/service/ledger"
	"github.com/lojinha-pet/billing/pkg/response"
	"github.com/lojinha-pet/billing/pkg/types"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

// RespSubscriptionStatus wraps TenantSubscriptionInfo in the standard envelope.
type RespSubscriptionStatus struct {
	Code    response.APIResponseCode     `json:"code"`
	Message string                       `json:"message"`
	Data    types.TenantSubscriptionInfo `json:"data"`
}

// RespCancellation wraps the cancellation result in the standard envelope.
type RespCancellation struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    cancellation.Result      `json:"data"`
}

// RespCheckoutSession wraps CreateCheckoutSessionResponse in the standard envelope.
type RespCheckoutSession struct {
	Code    response.APIResponseCode      `json:"code"`
	Message string                        `json:"message"`
	Data    CreateCheckoutSessionResponse `json:"data"`
}

// RespListPayments wraps ScanPaymentsResponse in the standard envelope.
type RespListPayments struct {
	Code    response.APIResponseCode    `json:"code"`
	Message string                      `json:"message"`
	Data    ledger.ScanPaymentsResponse `json:"data"`
}
