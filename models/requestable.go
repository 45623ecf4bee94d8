package models

// Requestable - сущность, по которой запускается процесс согласования.
// Пара (тип, ключ) является естественным ключом процесса.
type Requestable interface {
	RequestableType() string
	RequestableKey() string
}

// ConditionValued - опциональная способность сущности отдавать значения полей
// для условий динамического маскирования. Сущность без этой способности
// согласуется по полному набору этапов.
type ConditionValued interface {
	ApprovalConditionValues() map[string]string
}
