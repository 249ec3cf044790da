package model

import "time"

const (
	OperationStatusInfo    = "info"
	OperationStatusSuccess = "success"
	OperationStatusError   = "error"
)

// OperationLog is the audit trail of function invocations, one row per
// ingestion call on both success and failure.
type OperationLog struct {
	Id           string    `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	FunctionName string    `gorm:"index" json:"function_name"`
	Status       string    `json:"status"`
	Message      string    `json:"message"`
}

func (OperationLog) TableName() string {
	return "edge_function_logs"
}
