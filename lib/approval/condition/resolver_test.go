package condition

import (
	"testing"

	"github.com/stretchr/testify/require"

	"approval-backend/models"
	dbmodels "approval-backend/models/db"
)

func testComponents(steps ...int) []dbmodels.ApprovalComponent {
	list := make([]dbmodels.ApprovalComponent, 0, len(steps))
	for _, step := range steps {
		list = append(list, dbmodels.ApprovalComponent{
			Step:  step,
			Logic: models.ComponentLogicAnd,
		})
	}
	return list
}

func componentSteps(list []dbmodels.ApprovalComponent) []int {
	steps := make([]int, 0, len(list))
	for _, c := range list {
		steps = append(steps, c.Step)
	}
	return steps
}

func TestResolve(t *testing.T) {
	components := testComponents(0, 1, 2)

	t.Run("без правил маршрут не меняется", func(t *testing.T) {
		got := Resolve(map[string]string{"amount": "100"}, nil, components)
		require.Equal(t, []int{0, 1, 2}, componentSteps(got))
	})

	t.Run("сработавшее правило отсекает верхние этапы", func(t *testing.T) {
		rules := []dbmodels.ApprovalCondition{
			{Field: "amount", Operator: models.OperatorLess, Threshold: "1000", MaxStep: 1},
		}
		got := Resolve(map[string]string{"amount": "500"}, rules, components)
		require.Equal(t, []int{0, 1}, componentSteps(got))
	})

	t.Run("не сработавшее правило игнорируется", func(t *testing.T) {
		rules := []dbmodels.ApprovalCondition{
			{Field: "amount", Operator: models.OperatorLess, Threshold: "1000", MaxStep: 0},
		}
		got := Resolve(map[string]string{"amount": "5000"}, rules, components)
		require.Equal(t, []int{0, 1, 2}, componentSteps(got))
	})

	t.Run("правило без значения в заявке пропускается", func(t *testing.T) {
		rules := []dbmodels.ApprovalCondition{
			{Field: "region", Operator: models.OperatorEqual, Threshold: "msk", MaxStep: 0},
			{Field: "amount", Operator: models.OperatorLessOrEqual, Threshold: "100", MaxStep: 1},
		}
		got := Resolve(map[string]string{"amount": "100"}, rules, components)
		require.Equal(t, []int{0, 1}, componentSteps(got))
	})

	t.Run("применяется только первое сработавшее правило", func(t *testing.T) {
		rules := []dbmodels.ApprovalCondition{
			{Field: "amount", Operator: models.OperatorGreater, Threshold: "10", MaxStep: 2, Priority: 10},
			{Field: "amount", Operator: models.OperatorGreater, Threshold: "10", MaxStep: 0, Priority: 5},
		}
		got := Resolve(map[string]string{"amount": "50"}, rules, components)
		require.Equal(t, []int{0, 1, 2}, componentSteps(got))
	})

	t.Run("числовое сравнение, а не лексикографическое", func(t *testing.T) {
		rules := []dbmodels.ApprovalCondition{
			{Field: "amount", Operator: models.OperatorGreater, Threshold: "900", MaxStep: 0},
		}
		// "1000" < "900" как строки, но 1000 > 900 как числа
		got := Resolve(map[string]string{"amount": "1000"}, rules, components)
		require.Equal(t, []int{0}, componentSteps(got))
	})

	t.Run("нечисловые значения сравниваются как строки", func(t *testing.T) {
		rules := []dbmodels.ApprovalCondition{
			{Field: "region", Operator: models.OperatorEqual, Threshold: "msk", MaxStep: 1},
		}
		got := Resolve(map[string]string{"region": "msk"}, rules, components)
		require.Equal(t, []int{0, 1}, componentSteps(got))

		got = Resolve(map[string]string{"region": "spb"}, rules, components)
		require.Equal(t, []int{0, 1, 2}, componentSteps(got))
	})

	t.Run("max_step нулевого этапа оставляет один этап", func(t *testing.T) {
		rules := []dbmodels.ApprovalCondition{
			{Field: "amount", Operator: models.OperatorNotEqual, Threshold: "0", MaxStep: 0},
		}
		got := Resolve(map[string]string{"amount": "1"}, rules, components)
		require.Equal(t, []int{0}, componentSteps(got))
	})
}

func TestConditionEvaluate(t *testing.T) {
	cases := []struct {
		name      string
		operator  models.ConditionOperator
		threshold string
		value     string
		want      bool
	}{
		{"eq числа", models.OperatorEqual, "10", "10.0", true},
		{"neq числа", models.OperatorNotEqual, "10", "10.0", false},
		{"gt", models.OperatorGreater, "10", "11", true},
		{"gte на границе", models.OperatorGreaterOrEqual, "10", "10", true},
		{"lt", models.OperatorLess, "10", "9.5", true},
		{"lte выше порога", models.OperatorLessOrEqual, "10", "10.5", false},
		{"строки eq", models.OperatorEqual, "abc", "abc", true},
		{"строки gt", models.OperatorGreater, "abc", "abd", true},
		{"неизвестный оператор", models.ConditionOperator("~"), "10", "10", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rule := dbmodels.ApprovalCondition{Operator: c.operator, Threshold: c.threshold}
			require.Equal(t, c.want, rule.Evaluate(c.value))
		})
	}
}
