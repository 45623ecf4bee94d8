package models

type UserRole string

const (
	UserRoleAdmin UserRole = "ADMIN_ROLE"
	UserRoleUser  UserRole = "USER_ROLE"
)

var roleHumanName = map[UserRole]string{
	UserRoleAdmin: "Администратор",
	UserRoleUser:  "Пользователь",
}

func (r UserRole) ToHuman() string {
	if human, exist := roleHumanName[r]; exist {
		return human
	}
	return string(r)
}

func (r UserRole) IsAdmin() bool {
	return r == UserRoleAdmin
}

const SystemUser = "Система"
