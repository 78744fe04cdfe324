package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel holds the identity and timestamps every record carries.
// Timestamps are assigned by the service layer, not by gorm, so the
// createdAt <= updatedAt invariant holds for every record store.
type BaseModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false" json:"updatedAt"`
}

// BeforeCreate hook to generate UUID
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
