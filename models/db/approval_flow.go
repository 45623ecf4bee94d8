package dbmodels

import (
	"strconv"

	"approval-backend/models"
)

// ApprovalFlow - настроенный маршрут согласования.
// Правится администратором, на момент действия читается как есть:
// запущенные процессы держат собственные копии этапов.
type ApprovalFlow struct {
	BaseModel
	AuditModel
	Name       string                 `gorm:"type:varchar(255)"`
	RunMode    models.ApprovalRunMode `gorm:"type:varchar(50)"`
	Components []ApprovalComponent    `gorm:"foreignKey:ApprovalFlowID"`
	Conditions []ApprovalCondition    `gorm:"foreignKey:ApprovalFlowID"`
	Bindings   []ApprovalFlowBinding  `gorm:"foreignKey:ApprovalFlowID"`
}

// ApprovalFlowBinding - привязка типа согласуемой сущности к маршруту
type ApprovalFlowBinding struct {
	BaseModel
	ApprovalFlowID  string `gorm:"type:varchar(36)"`
	RequestableType string `gorm:"type:varchar(255);uniqueIndex"`
}

// ApprovalComponent - этап маршрута, занимает бит 1<<Step в маске
type ApprovalComponent struct {
	BaseModel
	ApprovalFlowID string `gorm:"type:varchar(36);index"`
	Name           string `gorm:"type:varchar(255)"`
	Step           int
	Logic          models.ComponentLogic `gorm:"type:varchar(10)"`
	Color          string                `gorm:"type:varchar(20)"`
	Contributors   []ApprovalContributor `gorm:"foreignKey:ApprovalComponentID"`
}

func (c ApprovalComponent) StepMask() int64 {
	return 1 << c.Step
}

// ApprovalContributor - настройка согласующего на этапе:
// либо конкретный пользователь, либо ссылка на групповую сущность
type ApprovalContributor struct {
	BaseModel
	ApprovalComponentID string `gorm:"type:varchar(36);index"`
	ContributorType     string `gorm:"type:varchar(100)"` // models.ContributorTypeUser или зарегистрированный групповой тип
	ContributorID       string `gorm:"type:varchar(36)"`
}

func (c ApprovalContributor) IsDirectUser() bool {
	return c.ContributorType == "" || c.ContributorType == models.ContributorTypeUser
}

// ApprovalCondition - правило динамического маскирования.
// Правила проверяются по убыванию приоритета, первое сработавшее
// ограничивает набор этапов диапазоном 0..MaxStep.
type ApprovalCondition struct {
	BaseModel
	ApprovalFlowID string                   `gorm:"type:varchar(36);index"`
	Field          string                   `gorm:"type:varchar(255)"`
	Operator       models.ConditionOperator `gorm:"type:varchar(5)"`
	Threshold      string                   `gorm:"type:varchar(255)"`
	MaxStep        int
	Priority       int
}

// Evaluate - проверка значения поля против порога.
// Числовое сравнение, если обе стороны числа, иначе строковое.
func (c ApprovalCondition) Evaluate(value string) bool {
	fValue, errV := strconv.ParseFloat(value, 64)
	fThreshold, errT := strconv.ParseFloat(c.Threshold, 64)
	if errV == nil && errT == nil {
		switch c.Operator {
		case models.OperatorLess:
			return fValue < fThreshold
		case models.OperatorGreater:
			return fValue > fThreshold
		case models.OperatorLessOrEqual:
			return fValue <= fThreshold
		case models.OperatorGreaterOrEqual:
			return fValue >= fThreshold
		case models.OperatorEqual:
			return fValue == fThreshold
		case models.OperatorNotEqual:
			return fValue != fThreshold
		}
		return false
	}
	switch c.Operator {
	case models.OperatorLess:
		return value < c.Threshold
	case models.OperatorGreater:
		return value > c.Threshold
	case models.OperatorLessOrEqual:
		return value <= c.Threshold
	case models.OperatorGreaterOrEqual:
		return value >= c.Threshold
	case models.OperatorEqual:
		return value == c.Threshold
	case models.OperatorNotEqual:
		return value != c.Threshold
	}
	return false
}
