package dbmodels

import (
	"fmt"
	"time"

	"approval-backend/models"
)

type User struct {
	BaseModel
	Password  string `gorm:"type:varchar(128)"`
	FirstName string `gorm:"type:varchar(150)"`
	LastName  string `gorm:"type:varchar(150)"`
	Email     string `gorm:"type:varchar(255);uniqueIndex"`
	IsActive  bool
	Role      models.UserRole `gorm:"type:varchar(50)"`
	LastLogin time.Time
}

func (r User) GetFullName() string {
	name := fmt.Sprintf("%s %s", r.FirstName, r.LastName)
	if name == " " {
		return r.GetDisplayName()
	}
	return name
}

// GetDisplayName - имя для сообщений и выгрузок,
// с запасным вариантом когда профиль не заполнен
func (r User) GetDisplayName() string {
	if r.FirstName != "" || r.LastName != "" {
		return fmt.Sprintf("%s %s", r.FirstName, r.LastName)
	}
	if r.Email != "" {
		return r.Email
	}
	return fmt.Sprintf("Пользователь #%s", r.ID)
}
