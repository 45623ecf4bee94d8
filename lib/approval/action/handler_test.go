package action

import (
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"approval-backend/models"
	dbmodels "approval-backend/models/db"
)

// memEvents - хранилище процессов в памяти, повторяющее поведение
// SQL-выборок достаточно для проверки переходов состояния
type memEvents struct {
	event        *dbmodels.ApprovalEvent
	components   []*dbmodels.ApprovalEventComponent
	contributors []*dbmodels.ApprovalEventContributor
	seq          int
}

func (m *memEvents) nextID() string {
	m.seq++
	return fmt.Sprintf("id-%d", m.seq)
}

func (m *memEvents) GetForUpdate(requestableType, requestableID string) (*dbmodels.ApprovalEvent, error) {
	return m.event, nil
}

func (m *memEvents) GetByRequestable(requestableType, requestableID string) (*dbmodels.ApprovalEvent, error) {
	return m.event, nil
}

func (m *memEvents) GetByID(id string) (*dbmodels.ApprovalEvent, error) { return m.event, nil }

func (m *memEvents) List(status string) ([]dbmodels.ApprovalEvent, error) { return nil, nil }

func (m *memEvents) Create(rec *dbmodels.ApprovalEvent) error {
	rec.ID = m.nextID()
	m.event = rec
	return nil
}

func (m *memEvents) Save(rec *dbmodels.ApprovalEvent) error { return nil }

func (m *memEvents) CreateComponent(rec *dbmodels.ApprovalEventComponent) error {
	rec.ID = m.nextID()
	m.components = append(m.components, rec)
	return nil
}

func (m *memEvents) SaveComponent(rec *dbmodels.ApprovalEventComponent) error { return nil }

func (m *memEvents) UpsertComponent(eventID string, stepMask int64, upd dbmodels.ApprovalEventComponent) (*dbmodels.ApprovalEventComponent, error) {
	for _, c := range m.components {
		if c.ApprovalEventID == eventID && c.StepMask == stepMask {
			c.Name = upd.Name
			c.Logic = upd.Logic
			c.Color = upd.Color
			c.ApprovedAt = upd.ApprovedAt
			c.RejectedAt = upd.RejectedAt
			c.CancelledAt = upd.CancelledAt
			c.RollbackAt = upd.RollbackAt
			return c, nil
		}
	}
	upd.ApprovalEventID = eventID
	upd.StepMask = stepMask
	rec := upd
	if err := m.CreateComponent(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (m *memEvents) pending(eventID string) []*dbmodels.ApprovalEventComponent {
	list := []*dbmodels.ApprovalEventComponent{}
	for _, c := range m.components {
		if c.ApprovalEventID == eventID && c.ApprovedAt == nil {
			list = append(list, c)
		}
	}
	sort.Slice(list, func(a, b int) bool { return list[a].StepMask < list[b].StepMask })
	return list
}

func (m *memEvents) FindComponentByMask(eventID string, stepMask int64) (*dbmodels.ApprovalEventComponent, error) {
	for _, c := range m.pending(eventID) {
		if c.StepMask&stepMask == stepMask {
			return c, nil
		}
	}
	return nil, nil
}

func (m *memEvents) FirstPendingComponent(eventID string) (*dbmodels.ApprovalEventComponent, error) {
	list := m.pending(eventID)
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (m *memEvents) FirstPendingComponentForUser(eventID, userID string) (*dbmodels.ApprovalEventComponent, error) {
	for _, c := range m.pending(eventID) {
		for _, contributor := range m.contributors {
			if contributor.ApprovalEventComponentID == c.ID && contributor.UserID == userID {
				return c, nil
			}
		}
	}
	return nil, nil
}

func (m *memEvents) MarkComponentsApproved(eventID string, stepMask int64, now time.Time) error {
	for _, c := range m.components {
		if c.ApprovalEventID == eventID && c.StepMask&stepMask == c.StepMask {
			at := now
			c.ApprovedAt = &at
		}
	}
	return nil
}

func (m *memEvents) MarkAllComponentsApproved(eventID string, now time.Time) error {
	for _, c := range m.components {
		if c.ApprovalEventID == eventID {
			at := now
			c.ApprovedAt = &at
		}
	}
	return nil
}

func (m *memEvents) HasContributors(componentID string) (bool, error) {
	for _, c := range m.contributors {
		if c.ApprovalEventComponentID == componentID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memEvents) GetContributorForUpdate(componentID, userID string) (*dbmodels.ApprovalEventContributor, error) {
	for _, c := range m.contributors {
		if c.ApprovalEventComponentID == componentID && c.UserID == userID {
			return c, nil
		}
	}
	return nil, nil
}

func (m *memEvents) ListContributors(componentID string) ([]dbmodels.ApprovalEventContributor, error) {
	list := []dbmodels.ApprovalEventContributor{}
	for _, c := range m.contributors {
		if c.ApprovalEventComponentID == componentID {
			list = append(list, *c)
		}
	}
	return list, nil
}

func (m *memEvents) EnsureContributor(componentID, userID string) error {
	for _, c := range m.contributors {
		if c.ApprovalEventComponentID == componentID && c.UserID == userID {
			return nil
		}
	}
	rec := dbmodels.ApprovalEventContributor{
		ApprovalEventComponentID: componentID,
		UserID:                   userID,
	}
	rec.ID = m.nextID()
	m.contributors = append(m.contributors, &rec)
	return nil
}

func (m *memEvents) SaveContributor(rec *dbmodels.ApprovalEventContributor) error {
	if rec.ID == "" {
		rec.ID = m.nextID()
		m.contributors = append(m.contributors, rec)
	}
	return nil
}

func (m *memEvents) ResetContributors(componentID string, cancelledAt time.Time) error {
	for _, c := range m.contributors {
		if c.ApprovalEventComponentID == componentID {
			at := cancelledAt
			c.CancelledAt = &at
			c.ApprovedAt = nil
			c.RejectedAt = nil
			c.RollbackAt = nil
		}
	}
	return nil
}

func (m *memEvents) DeleteContributorsExcept(componentID string, userIDs []string) error {
	keep := map[string]bool{}
	for _, id := range userIDs {
		keep[id] = true
	}
	filtered := m.contributors[:0]
	for _, c := range m.contributors {
		if c.ApprovalEventComponentID == componentID && !keep[c.UserID] {
			continue
		}
		filtered = append(filtered, c)
	}
	m.contributors = filtered
	return nil
}

// fakeStore - процесс уже существует, запуск возвращает его как есть
type fakeStore struct {
	events *memEvents
}

func (f fakeStore) Store(requestable models.Requestable) (*dbmodels.ApprovalEvent, bool, error) {
	return f.events.event, false, nil
}

type fakeFlows struct {
	flow *dbmodels.ApprovalFlow
}

func (f fakeFlows) Create(rec dbmodels.ApprovalFlow) (string, error)    { return "", nil }
func (f fakeFlows) GetByID(id string) (*dbmodels.ApprovalFlow, error)   { return f.flow, nil }
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

type fakeExpander struct{}

func (fakeExpander) Expand(list []dbmodels.ApprovalContributor) ([]string, error) {
	userIDs := []string{}
	for _, c := range list {
		userIDs = append(userIDs, c.ContributorID)
	}
	return userIDs, nil
}

type testRequestable struct{ id string }

func (r testRequestable) RequestableType() string { return "approval_request" }
func (r testRequestable) RequestableKey() string  { return r.id }

type componentSeed struct {
	step     int
	logic    models.ComponentLogic
	userIDs  []string
	approved bool
}

func seed(runMode models.ApprovalRunMode, seeds ...componentSeed) *memEvents {
	m := &memEvents{}
	rec := dbmodels.ApprovalEvent{
		RequestableType: "approval_request",
		RequestableID:   "req-1",
		RunMode:         runMode,
		Status:          models.ApprovalStatusDraft,
	}
	flowID := "flow-1"
	rec.ApprovalFlowID = &flowID
	_ = m.Create(&rec)

	now := time.Now()
	for _, s := range seeds {
		component := dbmodels.ApprovalEventComponent{
			ApprovalEventID: rec.ID,
			Name:            fmt.Sprintf("Этап %d", s.step),
			StepMask:        1 << s.step,
			Logic:           s.logic,
		}
		if s.approved {
			at := now
			component.ApprovedAt = &at
			rec.Step |= component.StepMask
		}
		_ = m.CreateComponent(&component)
		rec.Target |= component.StepMask
		for _, userID := range s.userIDs {
			_ = m.EnsureContributor(component.ID, userID)
		}
	}
	return m
}

func newHandler(m *memEvents, flow *dbmodels.ApprovalFlow) Provider {
	return NewInstance(m, fakeFlows{flow: flow}, fakeExpander{}, fakeStore{events: m})
}

func TestApprove(t *testing.T) {
	req := testRequestable{id: "req-1"}

	t.Run("OR этап закрывается одним голосом", func(t *testing.T) {
		m := seed(models.ApprovalRunModeSequential,
			componentSeed{step: 0, logic: models.ComponentLogicOr, userIDs: []string{"u1", "u2"}},
			componentSeed{step: 1, logic: models.ComponentLogicAnd, userIDs: []string{"u3"}},
		)
		h := newHandler(m, nil)

		rec, err := h.Approve(req, "u1", nil)
		require.NoError(t, err)
		require.Equal(t, models.ApprovalStatusDraft, rec.Status)
		require.Equal(t, int64(1), rec.Step)
		require.NotNil(t, m.components[0].ApprovedAt)
		require.Nil(t, m.components[1].ApprovedAt)
	})

	t.Run("AND этап ждет всех согласующих", func(t *testing.T) {
		m := seed(models.ApprovalRunModeSequential,
			componentSeed{step: 0, logic: models.ComponentLogicAnd, userIDs: []string{"u1", "u2"}},
		)
		h := newHandler(m, nil)

		rec, err := h.Approve(req, "u1", nil)
		require.NoError(t, err)
		require.Equal(t, int64(0), rec.Step)
		require.Nil(t, m.components[0].ApprovedAt)

		rec, err = h.Approve(req, "u2", nil)
		require.NoError(t, err)
		require.Equal(t, int64(1), rec.Step)
		require.Equal(t, models.ApprovalStatusApproved, rec.Status)
		require.NotNil(t, rec.ApprovedAt)
	})

	t.Run("последний этап завершает процесс", func(t *testing.T) {
		m := seed(models.ApprovalRunModeSequential,
			componentSeed{step: 0, logic: models.ComponentLogicOr, userIDs: []string{"u1"}, approved: true},
			componentSeed{step: 1, logic: models.ComponentLogicOr, userIDs: []string{"u2"}},
		)
		h := newHandler(m, nil)

		rec, err := h.Approve(req, "u2", nil)
		require.NoError(t, err)
		require.Equal(t, models.ApprovalStatusApproved, rec.Status)
		require.Equal(t, rec.Target, rec.Step)
		require.NotNil(t, rec.ApprovedAt)
	})

	t.Run("параллельный режим ведет пользователя на его этап", func(t *testing.T) {
		m := seed(models.ApprovalRunModeParallel,
			componentSeed{step: 0, logic: models.ComponentLogicAnd, userIDs: []string{"u1"}},
			componentSeed{step: 1, logic: models.ComponentLogicOr, userIDs: []string{"u2"}},
		)
		h := newHandler(m, nil)

		// u2 голосует раньше, чем пройден нулевой этап
		rec, err := h.Approve(req, "u2", nil)
		require.NoError(t, err)
		require.Equal(t, int64(2), rec.Step)
		require.Equal(t, models.ApprovalStatusDraft, rec.Status)
		require.Nil(t, m.components[0].ApprovedAt)
		require.NotNil(t, m.components[1].ApprovedAt)
	})

	t.Run("чужой пользователь получает ошибку", func(t *testing.T) {
		m := seed(models.ApprovalRunModeSequential,
			componentSeed{step: 0, logic: models.ComponentLogicAnd, userIDs: []string{"u1"}},
		)
		h := newHandler(m, nil)

		_, err := h.Approve(req, "stranger", nil)
		require.Error(t, err)
		require.True(t, errors.Is(err, models.ErrNotContributor))
	})

	t.Run("этап без согласующих проходится без проверки голоса", func(t *testing.T) {
		m := seed(models.ApprovalRunModeSequential,
			componentSeed{step: 0, logic: models.ComponentLogicAnd},
		)
		h := newHandler(m, nil)

		rec, err := h.Approve(req, "anyone", nil)
		require.NoError(t, err)
		require.Equal(t, models.ApprovalStatusApproved, rec.Status)
		require.Equal(t, int64(1), rec.Step)
	})

	t.Run("явная маска выбирает этап", func(t *testing.T) {
		m := seed(models.ApprovalRunModeSequential,
			componentSeed{step: 0, logic: models.ComponentLogicAnd, userIDs: []string{"u1"}},
			componentSeed{step: 1, logic: models.ComponentLogicOr, userIDs: []string{"u2"}},
		)
		h := newHandler(m, nil)

		mask := int64(2)
		rec, err := h.Approve(req, "u2", &mask)
		require.NoError(t, err)
		require.Equal(t, int64(2), rec.Step)
		require.NotNil(t, m.components[1].ApprovedAt)
	})

	t.Run("терминальный процесс поглощает действие", func(t *testing.T) {
		m := seed(models.ApprovalRunModeSequential,
			componentSeed{step: 0, logic: models.ComponentLogicOr, userIDs: []string{"u1"}},
		)
		now := time.Now()
		m.event.RejectedAt = &now
		m.event.Status = models.ApprovalStatusRejected
		h := newHandler(m, nil)

		rec, err := h.Approve(req, "u1", nil)
		require.NoError(t, err)
		require.Equal(t, models.ApprovalStatusRejected, rec.Status)
		require.Nil(t, m.contributors[0].ApprovedAt)
	})

	t.Run("без непройденных этапов процесс закрывается целиком", func(t *testing.T) {
		m := seed(models.ApprovalRunModeSequential,
			componentSeed{step: 0, logic: models.ComponentLogicOr, userIDs: []string{"u1"}, approved: true},
		)
		m.event.Step = 0 // маска разошлась с этапами
		h := newHandler(m, nil)

		rec, err := h.Approve(req, "u1", nil)
		require.NoError(t, err)
		require.Equal(t, models.ApprovalStatusApproved, rec.Status)
		require.Equal(t, rec.Target, rec.Step)
	})
}

func TestReject(t *testing.T) {
	req := testRequestable{id: "req-1"}

	t.Run("OR этап отклоняется одним голосом", func(t *testing.T) {
		m := seed(models.ApprovalRunModeSequential,
			componentSeed{step: 0, logic: models.ComponentLogicOr, userIDs: []string{"u1", "u2"}},
		)
		h := newHandler(m, nil)

		rec, err := h.Reject(req, "u1", nil)
		require.NoError(t, err)
		require.Equal(t, models.ApprovalStatusRejected, rec.Status)
		require.NotNil(t, rec.RejectedAt)
		require.NotNil(t, m.components[0].RejectedAt)
	})

	t.Run("AND этап при равенстве голосов продолжается", func(t *testing.T) {
		m := seed(models.ApprovalRunModeSequential,
			componentSeed{step: 0, logic: models.ComponentLogicAnd, userIDs: []string{"u1", "u2", "u3"}},
		)
		h := newHandler(m, nil)

		_, err := h.Approve(req, "u1", nil)
		require.NoError(t, err)

		rec, err := h.Reject(req, "u2", nil)
		require.NoError(t, err)
		require.Equal(t, models.ApprovalStatusDraft, rec.Status)
		require.Nil(t, rec.RejectedAt)
		require.Nil(t, m.components[0].RejectedAt)

		// второй отказ перевешивает единственное одобрение
		rec, err = h.Reject(req, "u3", nil)
		require.NoError(t, err)
		require.Equal(t, models.ApprovalStatusRejected, rec.Status)
		require.NotNil(t, rec.RejectedAt)
	})

	t.Run("не согласующий получает ошибку", func(t *testing.T) {
		m := seed(models.ApprovalRunModeSequential,
			componentSeed{step: 0, logic: models.ComponentLogicAnd, userIDs: []string{"u1"}},
		)
		h := newHandler(m, nil)

		_, err := h.Reject(req, "stranger", nil)
		require.True(t, errors.Is(err, models.ErrNotContributor))
	})

	t.Run("терминальный процесс поглощает отказ", func(t *testing.T) {
		m := seed(models.ApprovalRunModeSequential,
			componentSeed{step: 0, logic: models.ComponentLogicOr, userIDs: []string{"u1"}},
		)
		now := time.Now()
		m.event.ApprovedAt = &now
		m.event.Status = models.ApprovalStatusApproved
		h := newHandler(m, nil)

		rec, err := h.Reject(req, "u1", nil)
		require.NoError(t, err)
		require.Equal(t, models.ApprovalStatusApproved, rec.Status)
		require.Nil(t, rec.RejectedAt)
	})
}

func TestCancel(t *testing.T) {
	req := testRequestable{id: "req-1"}

	t.Run("отзыв сбрасывает этап и голоса", func(t *testing.T) {
		m := seed(models.ApprovalRunModeSequential,
			componentSeed{step: 0, logic: models.ComponentLogicOr, userIDs: []string{"u1"}, approved: true},
			componentSeed{step: 1, logic: models.ComponentLogicAnd, userIDs: []string{"u2", "u3"}},
		)
		h := newHandler(m, nil)

		// u2 успел проголосовать
		_, err := h.Approve(req, "u2", nil)
		require.NoError(t, err)

		rec, err := h.Cancel(req, "u2", nil)
		require.NoError(t, err)
		require.Equal(t, models.ApprovalStatusRejected, rec.Status)
		require.NotNil(t, rec.CancelledAt)
		require.Equal(t, int64(1), rec.Step)
		require.NotNil(t, m.components[1].CancelledAt)
		require.Nil(t, m.components[1].ApprovedAt)
		for _, c := range m.contributors {
			if c.ApprovalEventComponentID == m.components[1].ID {
				require.Nil(t, c.ApprovedAt)
				require.NotNil(t, c.CancelledAt)
			}
		}
	})

	t.Run("без этапов процесс отменяется", func(t *testing.T) {
		m := seed(models.ApprovalRunModeSequential)
		h := newHandler(m, nil)

		rec, err := h.Cancel(req, "u1", nil)
		require.NoError(t, err)
		require.Equal(t, models.ApprovalStatusCancelled, rec.Status)
		require.NotNil(t, rec.CancelledAt)
	})

	t.Run("терминальный процесс поглощает отзыв", func(t *testing.T) {
		m := seed(models.ApprovalRunModeSequential,
			componentSeed{step: 0, logic: models.ComponentLogicOr, userIDs: []string{"u1"}},
		)
		now := time.Now()
		m.event.ApprovedAt = &now
		m.event.Status = models.ApprovalStatusApproved
		h := newHandler(m, nil)

		rec, err := h.Cancel(req, "u1", nil)
		require.NoError(t, err)
		require.Equal(t, models.ApprovalStatusApproved, rec.Status)
		require.Nil(t, rec.CancelledAt)
	})
}

func TestRollback(t *testing.T) {
	req := testRequestable{id: "req-1"}

	t.Run("возврат в черновик с пересборкой этапов", func(t *testing.T) {
		m := seed(models.ApprovalRunModeSequential,
			componentSeed{step: 0, logic: models.ComponentLogicOr, userIDs: []string{"u1"}, approved: true},
		)
		now := time.Now()
		m.event.RejectedAt = &now
		m.event.Status = models.ApprovalStatusRejected

		flow := &dbmodels.ApprovalFlow{
			RunMode: models.ApprovalRunModeSequential,
			Components: []dbmodels.ApprovalComponent{
				{Name: "Руководитель", Step: 0, Logic: models.ComponentLogicOr,
					Contributors: []dbmodels.ApprovalContributor{{ContributorID: "u2"}}},
				{Name: "Директор", Step: 1, Logic: models.ComponentLogicAnd,
					Contributors: []dbmodels.ApprovalContributor{{ContributorID: "u3"}}},
			},
		}
		flow.ID = "flow-1"
		h := newHandler(m, flow)

		rec, err := h.Rollback(req)
		require.NoError(t, err)
		require.Equal(t, models.ApprovalStatusDraft, rec.Status)
		require.Equal(t, int64(0), rec.Step)
		require.Equal(t, int64(3), rec.Target)
		require.Nil(t, rec.ApprovedAt)
		require.Nil(t, rec.RejectedAt)
		require.NotNil(t, rec.RollbackAt)

		require.Len(t, m.components, 2)
		for _, c := range m.components {
			require.Nil(t, c.ApprovedAt, c.Name)
			require.NotNil(t, c.RollbackAt, c.Name)
		}

		// u1 больше не согласующий, u2 занял его место
		_, err = h.Approve(req, "u1", nil)
		require.True(t, errors.Is(err, models.ErrNotContributor))
		_, err = h.Approve(req, "u2", nil)
		require.NoError(t, err)
	})

	t.Run("процесс без маршрута обнуляется", func(t *testing.T) {
		m := seed(models.ApprovalRunModeSequential)
		m.event.ApprovalFlowID = nil
		now := time.Now()
		m.event.ApprovedAt = &now
		m.event.Status = models.ApprovalStatusApproved
		h := newHandler(m, nil)

		rec, err := h.Rollback(req)
		require.NoError(t, err)
		require.Equal(t, models.ApprovalStatusDraft, rec.Status)
		require.Zero(t, rec.Target)
		require.Nil(t, rec.ApprovedAt)
		require.NotNil(t, rec.RollbackAt)
	})
}

func TestForce(t *testing.T) {
	req := testRequestable{id: "req-1"}

	t.Run("без маски процесс закрывается целиком", func(t *testing.T) {
		m := seed(models.ApprovalRunModeSequential,
			componentSeed{step: 0, logic: models.ComponentLogicAnd, userIDs: []string{"u1"}},
			componentSeed{step: 1, logic: models.ComponentLogicAnd, userIDs: []string{"u2"}},
		)
		h := newHandler(m, nil)

		rec, err := h.Force(req, nil, nil)
		require.NoError(t, err)
		require.Equal(t, models.ApprovalStatusApproved, rec.Status)
		require.Equal(t, rec.Target, rec.Step)
		require.NotNil(t, rec.ApprovedAt)
		for _, c := range m.components {
			require.NotNil(t, c.ApprovedAt)
		}
	})

	t.Run("частичная маска закрывает только покрытые этапы", func(t *testing.T) {
		m := seed(models.ApprovalRunModeSequential,
			componentSeed{step: 0, logic: models.ComponentLogicAnd, userIDs: []string{"u1"}},
			componentSeed{step: 1, logic: models.ComponentLogicAnd, userIDs: []string{"u2"}},
		)
		h := newHandler(m, nil)

		mask := int64(1)
		rec, err := h.Force(req, &mask, nil)
		require.NoError(t, err)
		require.Equal(t, int64(1), rec.Step)
		require.Nil(t, rec.ApprovedAt)
		require.NotNil(t, m.components[0].ApprovedAt)
		require.Nil(t, m.components[1].ApprovedAt)
	})

	t.Run("статус задается явно", func(t *testing.T) {
		m := seed(models.ApprovalRunModeSequential,
			componentSeed{step: 0, logic: models.ComponentLogicAnd, userIDs: []string{"u1"}},
		)
		h := newHandler(m, nil)

		mask := int64(0)
		status := models.ApprovalStatusRejected
		rec, err := h.Force(req, &mask, &status)
		require.NoError(t, err)
		require.Equal(t, models.ApprovalStatusRejected, rec.Status)
		require.Zero(t, rec.Step)
	})
}
