package contributors

import (
	log "github.com/sirupsen/logrus"

	usersstore "approval-backend/lib/users/store"
	"approval-backend/models"
	dbmodels "approval-backend/models/db"
)

// Enumerator - групповая сущность, умеющая перечислять своих согласующих
type Enumerator interface {
	ApproverIDs(id string) (userIDs []string, err error)
}

// Provider - разворачивание настроек согласующих этапа в плоский
// список пользователей: прямые пользователи как есть, групповые типы
// через зарегистрированные перечислители. Несуществующие пользователи
// отбрасываются.
type Provider interface {
	Expand(list []dbmodels.ApprovalContributor) (userIDs []string, err error)
}

func NewInstance(users usersstore.Provider, groups map[string]Enumerator) Provider {
	return &impl{
		users:  users,
		groups: groups,
	}
}

type impl struct {
	users  usersstore.Provider
	groups map[string]Enumerator
}

func (i impl) Expand(list []dbmodels.ApprovalContributor) ([]string, error) {
	userIDs := []string{}
	seen := map[string]bool{}

	appendUser := func(userID string) error {
		if seen[userID] {
			return nil
		}
		user, err := i.users.GetByID(userID)
		if err != nil {
			return err
		}
		if user == nil {
			log.WithField("user_id", userID).Warn("согласующий не найден среди пользователей, пропущен")
			return nil
		}
		seen[userID] = true
		userIDs = append(userIDs, userID)
		return nil
	}

	for _, contributor := range list {
		if contributor.IsDirectUser() {
			if err := appendUser(contributor.ContributorID); err != nil {
				return nil, err
			}
			continue
		}
		enumerator, exist := i.groups[contributor.ContributorType]
		if !exist {
			log.WithField("contributor_type", contributor.ContributorType).
				Warn("неизвестный тип группы согласующих, пропущен")
			continue
		}
		members, err := enumerator.ApproverIDs(contributor.ContributorID)
		if err != nil {
			return nil, err
		}
		for _, userID := range members {
			if err = appendUser(userID); err != nil {
				return nil, err
			}
		}
	}
	return userIDs, nil
}

// GroupsFromConfig - реестр групповых типов по списку из настроек
// приложения. Регистрируются только перечисленные типы: встроенный тип
// обслуживается хранилищем групп, тип без перечислителя пропускается
// с предупреждением.
func GroupsFromConfig(types []string, groupStore Enumerator) map[string]Enumerator {
	registry := map[string]Enumerator{}
	for _, contributorType := range types {
		if contributorType == models.ContributorTypeGroup {
			registry[contributorType] = groupStore
			continue
		}
		log.WithField("contributor_type", contributorType).
			Warn("групповой тип из настроек не имеет перечислителя, пропущен")
	}
	return registry
}
