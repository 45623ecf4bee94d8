package models

// Статусы процесса согласования.
// Терминальность определяется по заполненным меткам времени, статус дублирует их для выборок.
type ApprovalStatus string

const (
	ApprovalStatusDraft     ApprovalStatus = "DRAFT"
	ApprovalStatusApproved  ApprovalStatus = "APPROVED"
	ApprovalStatusRejected  ApprovalStatus = "REJECTED"
	ApprovalStatusCancelled ApprovalStatus = "CANCELLED"
)

var approvalStatusHumanName = map[ApprovalStatus]string{
	ApprovalStatusDraft:     "Черновик",
	ApprovalStatusApproved:  "Согласовано",
	ApprovalStatusRejected:  "Отклонено",
	ApprovalStatusCancelled: "Отменено",
}

func (s ApprovalStatus) ToHuman() string {
	if human, exist := approvalStatusHumanName[s]; exist {
		return human
	}
	return string(s)
}

func (s ApprovalStatus) IsValid() bool {
	_, exist := approvalStatusHumanName[s]
	return exist
}

// Режим прохождения этапов согласования
type ApprovalRunMode string

const (
	ApprovalRunModeParallel   ApprovalRunMode = "PARALLEL"
	ApprovalRunModeSequential ApprovalRunMode = "SEQUENTIAL"
)

var approvalRunModeHumanName = map[ApprovalRunMode]string{
	ApprovalRunModeParallel:   "Параллельное согласование",
	ApprovalRunModeSequential: "Последовательное согласование",
}

func (m ApprovalRunMode) ToHuman() string {
	if human, exist := approvalRunModeHumanName[m]; exist {
		return human
	}
	return string(m)
}

func (m ApprovalRunMode) IsValid() bool {
	_, exist := approvalRunModeHumanName[m]
	return exist
}

// Логика голосования на этапе:
// AND - требуются голоса всех согласующих, OR - достаточно любого одного.
type ComponentLogic string

const (
	ComponentLogicAnd ComponentLogic = "AND"
	ComponentLogicOr  ComponentLogic = "OR"
)

func (l ComponentLogic) IsValid() bool {
	return l == ComponentLogicAnd || l == ComponentLogicOr
}

// Операторы условий динамического маскирования.
// Список фиксирован, никакого исполнения выражений.
type ConditionOperator string

const (
	OperatorLess           ConditionOperator = "<"
	OperatorGreater        ConditionOperator = ">"
	OperatorLessOrEqual    ConditionOperator = "<="
	OperatorGreaterOrEqual ConditionOperator = ">="
	OperatorEqual          ConditionOperator = "=="
	OperatorNotEqual       ConditionOperator = "!="
)

var ConditionOperators = []ConditionOperator{
	OperatorLess,
	OperatorGreater,
	OperatorLessOrEqual,
	OperatorGreaterOrEqual,
	OperatorEqual,
	OperatorNotEqual,
}

func (o ConditionOperator) IsValid() bool {
	for _, op := range ConditionOperators {
		if o == op {
			return true
		}
	}
	return false
}

// MaxComponentStep - максимальный номер этапа, маска хранится в int64
const MaxComponentStep = 62

// ContributorTypeUser - прямое указание пользователя в настройке согласующих
const ContributorTypeUser = "user"

// ContributorTypeGroup - встроенная группа согласующих
const ContributorTypeGroup = "approval_group"
