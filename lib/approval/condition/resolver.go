package condition

import (
	dbmodels "approval-backend/models/db"
)

// Resolve - отбор этапов маршрута по условиям.
// Правила должны быть отсортированы по приоритету (по убыванию), при равном
// приоритете - по id; применяется первое сработавшее правило: этапы с номером
// выше max_step отбрасываются. Если ни одно правило не сработало либо правил
// нет, маршрут используется целиком.
func Resolve(values map[string]string, rules []dbmodels.ApprovalCondition, components []dbmodels.ApprovalComponent) []dbmodels.ApprovalComponent {
	for _, rule := range rules {
		value, ok := values[rule.Field]
		if !ok {
			continue
		}
		if !rule.Evaluate(value) {
			continue
		}
		filtered := make([]dbmodels.ApprovalComponent, 0, len(components))
		for _, component := range components {
			if component.Step <= rule.MaxStep {
				filtered = append(filtered, component)
			}
		}
		return filtered
	}
	return components
}
