package dbmodels

import (
	"strconv"
)

// RequestableTypeApprovalRequest - тег встроенной согласуемой сущности
const RequestableTypeApprovalRequest = "approval_request"

// ApprovalRequest - встроенная заявка на согласование.
// Служит согласуемой сущностью по умолчанию: сумма заявки участвует
// в условиях динамического маскирования.
type ApprovalRequest struct {
	BaseModel
	AuditModel
	AuthorID    string `gorm:"type:varchar(36)"`
	Author      *User  `gorm:"foreignKey:AuthorID"`
	Title       string `gorm:"type:varchar(255)"`
	Description string
	Amount      float64
}

func (r ApprovalRequest) RequestableType() string {
	return RequestableTypeApprovalRequest
}

func (r ApprovalRequest) RequestableKey() string {
	return r.ID
}

func (r ApprovalRequest) ApprovalConditionValues() map[string]string {
	return map[string]string{
		"amount": strconv.FormatFloat(r.Amount, 'f', -1, 64),
		"title":  r.Title,
	}
}
