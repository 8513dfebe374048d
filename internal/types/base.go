package types

import (
	"context"
	"time"
)

// Status is the row lifecycle status shared by all entities. Nothing is
// hard-deleted; archival and deletion are status transitions.
type Status string

const (
	StatusPublished Status = "published"
	StatusDeleted   Status = "deleted"
	StatusArchived  Status = "archived"
)

// Metadata is a generic string map persisted as JSONB.
type Metadata map[string]string

// BaseModel carries the audit columns common to every entity.
type BaseModel struct {
	TenantID  string    `json:"tenant_id"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CreatedBy string    `json:"created_by"`
	UpdatedBy string    `json:"updated_by"`
}

// GetDefaultBaseModel returns a BaseModel initialized from the request
// context: tenant and acting user from context, timestamps now.
func GetDefaultBaseModel(ctx context.Context) BaseModel {
	now := time.Now().UTC()
	user := GetUserID(ctx)
	return BaseModel{
		TenantID:  GetTenantID(ctx),
		Status:    StatusPublished,
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: user,
		UpdatedBy: user,
	}
}
