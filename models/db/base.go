package dbmodels

import (
	"time"

	"gorm.io/gorm"
)

type BaseModel struct {
	ID        string    `gorm:"primaryKey;default:uuid_generate_v4()" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuditModel - данные аудита и мягкого удаления.
// Явный встраиваемый объект, заполняется на уровне обработчиков.
type AuditModel struct {
	CreatedBy *string        `gorm:"type:varchar(36)" json:"created_by,omitempty"`
	UpdatedBy *string        `gorm:"type:varchar(36)" json:"updated_by,omitempty"`
	DeletedBy *string        `gorm:"type:varchar(36)" json:"deleted_by,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
