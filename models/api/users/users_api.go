package usersapimodels

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"approval-backend/models"
	dbmodels "approval-backend/models/db"
)

type UserData struct {
	Email     string          `json:"email"`
	Password  string          `json:"password"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Role      models.UserRole `json:"role"`
}

func (d UserData) Validate() error {
	if strings.TrimSpace(d.Email) == "" {
		return errors.New("не указана почта")
	}
	if d.Password == "" {
		return errors.New("не указан пароль")
	}
	if d.Role != models.UserRoleAdmin && d.Role != models.UserRoleUser {
		return errors.Errorf("недопустимая роль: %v", d.Role)
	}
	return nil
}

type UserView struct {
	ID        string          `json:"id"`
	Email     string          `json:"email"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	FullName  string          `json:"full_name"`
	Role      models.UserRole `json:"role"`
	RoleName  string          `json:"role_name"`
	IsActive  bool            `json:"is_active"`
	LastLogin *time.Time      `json:"last_login"`
}

func UserConvert(rec dbmodels.User) UserView {
	return UserView{
		ID:        rec.ID,
		Email:     rec.Email,
		FirstName: rec.FirstName,
		LastName:  rec.LastName,
		FullName:  rec.GetFullName(),
		Role:      rec.Role,
		RoleName:  rec.Role.ToHuman(),
		IsActive:  rec.IsActive,
		LastLogin: &rec.LastLogin,
	}
}
