package models

import "github.com/pkg/errors"

// Типизированные ошибки движка согласования.
// Хранилищные сбои оборачиваются в общую ошибку действия на уровне фасада,
// эти сигналы проверяются через errors.Is.
var (
	ErrRequestableTypeRequired = errors.New("не указан тип согласуемой сущности")
	ErrRequestableTypeUnknown  = errors.New("тип согласуемой сущности не зарегистрирован")
	ErrRequestableNotFound     = errors.New("согласуемая сущность не найдена")
	ErrUserNotFound            = errors.New("пользователь не найден")
	ErrNotContributor          = errors.New("пользователь не является согласующим на этапе")
)
