package contributors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"approval-backend/models"
	dbmodels "approval-backend/models/db"
)

type fakeUsers struct {
	existing map[string]bool
}

func (f fakeUsers) Create(rec dbmodels.User) (string, error) { return "", nil }

func (f fakeUsers) GetByID(id string) (*dbmodels.User, error) {
	if !f.existing[id] {
		return nil, nil
	}
	rec := dbmodels.User{}
	rec.ID = id
	return &rec, nil
}

func (f fakeUsers) FindByEmail(email string) (*dbmodels.User, error) { return nil, nil }
func (f fakeUsers) List() ([]dbmodels.User, error)                   { return nil, nil }
func (f fakeUsers) Update(id string, updMap map[string]interface{}) error {
	return nil
}
func (f fakeUsers) SetLastLogin(id string, value time.Time) error { return nil }

type fakeGroup struct {
	members map[string][]string
}

func (f fakeGroup) ApproverIDs(id string) ([]string, error) {
	return f.members[id], nil
}

func TestExpand(t *testing.T) {
	users := fakeUsers{existing: map[string]bool{
		"u1": true, "u2": true, "u3": true,
	}}
	groups := map[string]Enumerator{
		models.ContributorTypeGroup: fakeGroup{members: map[string][]string{
			"g1": {"u2", "u3", "ghost"},
		}},
	}
	p := NewInstance(users, groups)

	t.Run("прямые пользователи", func(t *testing.T) {
		got, err := p.Expand([]dbmodels.ApprovalContributor{
			{ContributorType: models.ContributorTypeUser, ContributorID: "u1"},
			{ContributorType: "", ContributorID: "u2"},
		})
		require.NoError(t, err)
		require.Equal(t, []string{"u1", "u2"}, got)
	})

	t.Run("группа разворачивается в участников", func(t *testing.T) {
		got, err := p.Expand([]dbmodels.ApprovalContributor{
			{ContributorType: models.ContributorTypeGroup, ContributorID: "g1"},
		})
		require.NoError(t, err)
		require.Equal(t, []string{"u2", "u3"}, got)
	})

	t.Run("дубли между пользователем и группой схлопываются", func(t *testing.T) {
		got, err := p.Expand([]dbmodels.ApprovalContributor{
			{ContributorType: models.ContributorTypeUser, ContributorID: "u2"},
			{ContributorType: models.ContributorTypeGroup, ContributorID: "g1"},
		})
		require.NoError(t, err)
		require.Equal(t, []string{"u2", "u3"}, got)
	})

	t.Run("несуществующий пользователь отбрасывается", func(t *testing.T) {
		got, err := p.Expand([]dbmodels.ApprovalContributor{
			{ContributorType: models.ContributorTypeUser, ContributorID: "ghost"},
			{ContributorType: models.ContributorTypeUser, ContributorID: "u1"},
		})
		require.NoError(t, err)
		require.Equal(t, []string{"u1"}, got)
	})

	t.Run("неизвестный тип группы пропускается", func(t *testing.T) {
		got, err := p.Expand([]dbmodels.ApprovalContributor{
			{ContributorType: "ldap_group", ContributorID: "g1"},
			{ContributorType: models.ContributorTypeUser, ContributorID: "u1"},
		})
		require.NoError(t, err)
		require.Equal(t, []string{"u1"}, got)
	})

	t.Run("пустая настройка этапа", func(t *testing.T) {
		got, err := p.Expand(nil)
		require.NoError(t, err)
		require.Empty(t, got)
	})
}

func TestGroupsFromConfig(t *testing.T) {
	store := fakeGroup{members: map[string][]string{"g1": {"u2"}}}

	t.Run("регистрируются только перечисленные типы", func(t *testing.T) {
		registry := GroupsFromConfig([]string{models.ContributorTypeGroup, "ldap_group"}, store)
		require.Len(t, registry, 1)
		require.Contains(t, registry, models.ContributorTypeGroup)
	})

	t.Run("пустой список отключает групповые типы", func(t *testing.T) {
		users := fakeUsers{existing: map[string]bool{"u1": true, "u2": true}}
		p := NewInstance(users, GroupsFromConfig(nil, store))
		got, err := p.Expand([]dbmodels.ApprovalContributor{
			{ContributorType: models.ContributorTypeGroup, ContributorID: "g1"},
			{ContributorType: models.ContributorTypeUser, ContributorID: "u1"},
		})
		require.NoError(t, err)
		require.Equal(t, []string{"u1"}, got)
	})
}
