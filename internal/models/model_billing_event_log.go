package models

import (
	"time"

	"gorm.io/datatypes"
)

type BillingEventLogStatus string

const (
	BillingEventLogStatusReceived     BillingEventLogStatus = "received"
	BillingEventLogStatusHandled      BillingEventLogStatus = "handled"
	BillingEventLogStatusIgnored      BillingEventLogStatus = "ignored"
	BillingEventLogStatusHandleFailed BillingEventLogStatus = "handle_failed"
)

// BillingEventLog records every webhook delivery around processing so
// operators can review unroutable or fallback-applied events.
type BillingEventLog struct {
	ID              string                `gorm:"column:id;type:uuid;primary_key" json:"id"`
	EventKind       string                `gorm:"column:event_kind;type:varchar(64);not null" json:"event_kind"`
	TenantKey       *string               `gorm:"column:tenant_key;type:varchar(64)" json:"tenant_key"`
	TraceID         string                `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	ExternalEventID string                `gorm:"column:external_event_id;type:varchar(128)" json:"external_event_id"`
	EventTime       time.Time             `gorm:"column:event_time" json:"event_time"`
	Data            datatypes.JSON        `gorm:"column:data;type:jsonb" json:"data"`
	Result          *datatypes.JSON       `gorm:"column:result;type:jsonb" json:"result"`
	Status          BillingEventLogStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

func (BillingEventLog) TableName() string { return "billing_event_log" }
