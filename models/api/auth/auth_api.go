package authapimodels

import (
	"strings"

	"github.com/pkg/errors"
)

type LoginData struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (d LoginData) Validate() error {
	if strings.TrimSpace(d.Email) == "" {
		return errors.New("не указана почта")
	}
	if d.Password == "" {
		return errors.New("не указан пароль")
	}
	return nil
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RefreshData struct {
	RefreshToken string `json:"refresh_token"`
}

func (d RefreshData) Validate() error {
	if d.RefreshToken == "" {
		return errors.New("не указан refresh токен")
	}
	return nil
}
