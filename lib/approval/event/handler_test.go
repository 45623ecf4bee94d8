package event

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"approval-backend/models"
	dbmodels "approval-backend/models/db"
)

type fakeEvents struct {
	existing     *dbmodels.ApprovalEvent
	events       []*dbmodels.ApprovalEvent
	components   []*dbmodels.ApprovalEventComponent
	contributors []*dbmodels.ApprovalEventContributor
	seq          int
}

func (f *fakeEvents) nextID() string {
	f.seq++
	return fmt.Sprintf("id-%d", f.seq)
}

func (f *fakeEvents) GetForUpdate(requestableType, requestableID string) (*dbmodels.ApprovalEvent, error) {
	return f.existing, nil
}

func (f *fakeEvents) GetByRequestable(requestableType, requestableID string) (*dbmodels.ApprovalEvent, error) {
	return f.existing, nil
}

func (f *fakeEvents) GetByID(id string) (*dbmodels.ApprovalEvent, error) { return nil, nil }

func (f *fakeEvents) List(status string) ([]dbmodels.ApprovalEvent, error) { return nil, nil }

func (f *fakeEvents) Create(rec *dbmodels.ApprovalEvent) error {
	rec.ID = f.nextID()
	f.events = append(f.events, rec)
	return nil
}

func (f *fakeEvents) Save(rec *dbmodels.ApprovalEvent) error { return nil }

func (f *fakeEvents) CreateComponent(rec *dbmodels.ApprovalEventComponent) error {
	rec.ID = f.nextID()
	f.components = append(f.components, rec)
	return nil
}

func (f *fakeEvents) SaveComponent(rec *dbmodels.ApprovalEventComponent) error { return nil }

func (f *fakeEvents) UpsertComponent(eventID string, stepMask int64, upd dbmodels.ApprovalEventComponent) (*dbmodels.ApprovalEventComponent, error) {
	return nil, nil
}

func (f *fakeEvents) FindComponentByMask(eventID string, stepMask int64) (*dbmodels.ApprovalEventComponent, error) {
	return nil, nil
}

func (f *fakeEvents) FirstPendingComponent(eventID string) (*dbmodels.ApprovalEventComponent, error) {
	return nil, nil
}

func (f *fakeEvents) FirstPendingComponentForUser(eventID, userID string) (*dbmodels.ApprovalEventComponent, error) {
	return nil, nil
}

func (f *fakeEvents) MarkComponentsApproved(eventID string, stepMask int64, now time.Time) error {
	return nil
}

func (f *fakeEvents) MarkAllComponentsApproved(eventID string, now time.Time) error { return nil }

func (f *fakeEvents) HasContributors(componentID string) (bool, error) { return false, nil }

func (f *fakeEvents) GetContributorForUpdate(componentID, userID string) (*dbmodels.ApprovalEventContributor, error) {
	return nil, nil
}

func (f *fakeEvents) ListContributors(componentID string) ([]dbmodels.ApprovalEventContributor, error) {
	return nil, nil
}

func (f *fakeEvents) EnsureContributor(componentID, userID string) error { return nil }

func (f *fakeEvents) SaveContributor(rec *dbmodels.ApprovalEventContributor) error {
	rec.ID = f.nextID()
	f.contributors = append(f.contributors, rec)
	return nil
}

func (f *fakeEvents) ResetContributors(componentID string, cancelledAt time.Time) error { return nil }

func (f *fakeEvents) DeleteContributorsExcept(componentID string, userIDs []string) error { return nil }

type fakeFlows struct {
	flow *dbmodels.ApprovalFlow
}

func (f fakeFlows) Create(rec dbmodels.ApprovalFlow) (string, error)    { return "", nil }
func (f fakeFlows) GetByID(id string) (*dbmodels.ApprovalFlow, error)   { return nil, nil }
func (f fakeFlows) GetByKey(key string) (*dbmodels.ApprovalFlow, error) { return f.flow, nil }
func (f fakeFlows) List() ([]dbmodels.ApprovalFlow, error)              { return nil, nil }
func (f fakeFlows) Update(id string, updMap map[string]interface{}) error {
	return nil
}
func (f fakeFlows) Delete(id string) error { return nil }
func (f fakeFlows) SaveComponents(flowID string, components []dbmodels.ApprovalComponent) error {
	return nil
}
func (f fakeFlows) SaveConditions(flowID string, conditions []dbmodels.ApprovalCondition) error {
	return nil
}
func (f fakeFlows) ListConditions(flowID string) ([]dbmodels.ApprovalCondition, error) {
	return nil, nil
}
func (f fakeFlows) SaveBinding(flowID, requestableType string) error { return nil }
func (f fakeFlows) DeleteBinding(requestableType string) error       { return nil }

// fakeExpander - прямые пользователи без обращения к хранилищу
type fakeExpander struct{}

func (fakeExpander) Expand(list []dbmodels.ApprovalContributor) ([]string, error) {
	userIDs := []string{}
	for _, c := range list {
		userIDs = append(userIDs, c.ContributorID)
	}
	return userIDs, nil
}

type testRequestable struct {
	id     string
	values map[string]string
}

func (r testRequestable) RequestableType() string { return "approval_request" }
func (r testRequestable) RequestableKey() string  { return r.id }
func (r testRequestable) ApprovalConditionValues() map[string]string {
	return r.values
}

func newFlow(components ...dbmodels.ApprovalComponent) *dbmodels.ApprovalFlow {
	flow := dbmodels.ApprovalFlow{
		Name:       "Согласование заявки",
		RunMode:    models.ApprovalRunModeParallel,
		Components: components,
	}
	flow.ID = "flow-1"
	return &flow
}

func TestStore(t *testing.T) {
	t.Run("повторный запуск возвращает существующий процесс", func(t *testing.T) {
		existing := &dbmodels.ApprovalEvent{Status: models.ApprovalStatusDraft}
		existing.ID = "evt-1"
		events := &fakeEvents{existing: existing}
		h := NewInstance(events, fakeFlows{flow: newFlow()}, fakeExpander{})

		rec, created, err := h.Store(testRequestable{id: "req-1"})
		require.NoError(t, err)
		require.False(t, created)
		require.Equal(t, "evt-1", rec.ID)
		require.Empty(t, events.events)
	})

	t.Run("без маршрута процесс проходит автоматически", func(t *testing.T) {
		events := &fakeEvents{}
		h := NewInstance(events, fakeFlows{}, fakeExpander{})

		rec, created, err := h.Store(testRequestable{id: "req-1"})
		require.NoError(t, err)
		require.True(t, created)
		require.Equal(t, models.ApprovalStatusApproved, rec.Status)
		require.NotNil(t, rec.ApprovedAt)
		require.Nil(t, rec.ApprovalFlowID)
		require.Equal(t, models.ApprovalRunModeParallel, rec.RunMode)
		require.Zero(t, rec.Step)
		require.Zero(t, rec.Target)
	})

	t.Run("процесс создается с копиями этапов и согласующими", func(t *testing.T) {
		flow := newFlow(
			dbmodels.ApprovalComponent{Name: "Руководитель", Step: 0, Logic: models.ComponentLogicAnd,
				Contributors: []dbmodels.ApprovalContributor{{ContributorID: "u1"}, {ContributorID: "u2"}}},
			dbmodels.ApprovalComponent{Name: "Бухгалтерия", Step: 1, Logic: models.ComponentLogicOr,
				Contributors: []dbmodels.ApprovalContributor{{ContributorID: "u3"}}},
		)
		events := &fakeEvents{}
		h := NewInstance(events, fakeFlows{flow: flow}, fakeExpander{})

		rec, created, err := h.Store(testRequestable{id: "req-1"})
		require.NoError(t, err)
		require.True(t, created)
		require.Equal(t, models.ApprovalStatusDraft, rec.Status)
		require.Equal(t, int64(0), rec.Step)
		require.Equal(t, int64(3), rec.Target)
		require.Len(t, events.components, 2)
		require.Equal(t, int64(1), events.components[0].StepMask)
		require.Equal(t, int64(2), events.components[1].StepMask)
		require.Len(t, events.contributors, 3)
	})

	t.Run("этап без согласующих проходится при создании", func(t *testing.T) {
		flow := newFlow(
			dbmodels.ApprovalComponent{Name: "Автошаг", Step: 0, Logic: models.ComponentLogicAnd},
			dbmodels.ApprovalComponent{Name: "Руководитель", Step: 1, Logic: models.ComponentLogicAnd,
				Contributors: []dbmodels.ApprovalContributor{{ContributorID: "u1"}}},
		)
		events := &fakeEvents{}
		h := NewInstance(events, fakeFlows{flow: flow}, fakeExpander{})

		rec, _, err := h.Store(testRequestable{id: "req-1"})
		require.NoError(t, err)
		require.Equal(t, models.ApprovalStatusDraft, rec.Status)
		require.Equal(t, int64(1), rec.Step)
		require.Equal(t, int64(3), rec.Target)
		require.NotNil(t, events.components[0].ApprovedAt)
		require.Nil(t, events.components[1].ApprovedAt)
	})

	t.Run("все этапы без согласующих - процесс сразу согласован", func(t *testing.T) {
		flow := newFlow(
			dbmodels.ApprovalComponent{Name: "Автошаг", Step: 0, Logic: models.ComponentLogicAnd},
			dbmodels.ApprovalComponent{Name: "Автошаг 2", Step: 1, Logic: models.ComponentLogicAnd},
		)
		events := &fakeEvents{}
		h := NewInstance(events, fakeFlows{flow: flow}, fakeExpander{})

		rec, _, err := h.Store(testRequestable{id: "req-1"})
		require.NoError(t, err)
		require.Equal(t, models.ApprovalStatusApproved, rec.Status)
		require.NotNil(t, rec.ApprovedAt)
		require.Equal(t, rec.Target, rec.Step)
	})

	t.Run("условия ограничивают набор этапов", func(t *testing.T) {
		flow := newFlow(
			dbmodels.ApprovalComponent{Name: "Руководитель", Step: 0, Logic: models.ComponentLogicAnd,
				Contributors: []dbmodels.ApprovalContributor{{ContributorID: "u1"}}},
			dbmodels.ApprovalComponent{Name: "Директор", Step: 1, Logic: models.ComponentLogicAnd,
				Contributors: []dbmodels.ApprovalContributor{{ContributorID: "u2"}}},
		)
		flow.Conditions = []dbmodels.ApprovalCondition{
			{Field: "amount", Operator: models.OperatorLess, Threshold: "1000", MaxStep: 0},
		}
		events := &fakeEvents{}
		h := NewInstance(events, fakeFlows{flow: flow}, fakeExpander{})

		rec, _, err := h.Store(testRequestable{id: "req-1", values: map[string]string{"amount": "500"}})
		require.NoError(t, err)
		require.Equal(t, int64(1), rec.Target)
		require.Len(t, events.components, 1)
	})
}
