package usershandler

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"approval-backend/db"
	usersstore "approval-backend/lib/users/store"
	authutils "approval-backend/lib/utils/auth-utils"
	authapimodels "approval-backend/models/api/auth"
	usersapimodels "approval-backend/models/api/users"
	dbmodels "approval-backend/models/db"
)

type Provider interface {
	Login(email, password string) (response authapimodels.LoginResponse, err error)
	Refresh(refreshToken string) (response authapimodels.LoginResponse, err error)
	Create(data usersapimodels.UserData) (id string, err error)
	GetByID(id string) (item usersapimodels.UserView, err error)
	List() (list []usersapimodels.UserView, err error)
}

var Instance Provider

func NewHandler() {
	Instance = impl{
		store: usersstore.NewInstance(db.DB),
	}
}

type impl struct {
	store usersstore.Provider
}

func (i impl) Login(email, password string) (authapimodels.LoginResponse, error) {
	logger := log.WithField("email", email)
	user, err := i.store.FindByEmail(email)
	if err != nil {
		logger.WithError(err).Error("ошибка поиска пользователя по почте")
		return authapimodels.LoginResponse{}, err
	}
	if user == nil {
		logger.Debug("пользователь с такой почтой не найден")
		return authapimodels.LoginResponse{}, errors.New("пользователь с такой почтой не найден")
	}
	if !user.IsActive {
		return authapimodels.LoginResponse{}, errors.New("пользователь заблокирован")
	}
	if authutils.GetMD5Hash(password) != user.Password {
		logger.Debug("пользователь не прошел проверку пароля")
		return authapimodels.LoginResponse{}, errors.New("пользователь не прошел проверку пароля")
	}
	response, err := i.tokens(user)
	if err != nil {
		logger.WithError(err).Error("ошибка генерации JWT")
		return authapimodels.LoginResponse{}, err
	}
	if err = i.store.SetLastLogin(user.ID, time.Now()); err != nil {
		logger.WithError(err).Error("ошибка обновления даты последнего входа")
	}
	return response, nil
}

func (i impl) Refresh(refreshToken string) (authapimodels.LoginResponse, error) {
	claims, err := authutils.ParseToken(refreshToken)
	if err != nil {
		return authapimodels.LoginResponse{}, errors.New("refresh токен не прошел проверку")
	}
	userID, _ := claims["sub"].(string)
	user, err := i.store.GetByID(userID)
	if err != nil {
		return authapimodels.LoginResponse{}, err
	}
	if user == nil || !user.IsActive {
		return authapimodels.LoginResponse{}, errors.New("пользователь не найден или заблокирован")
	}
	return i.tokens(user)
}

func (i impl) Create(data usersapimodels.UserData) (id string, err error) {
	logger := log.WithField("email", data.Email)
	if err = data.Validate(); err != nil {
		return "", err
	}
	existing, err := i.store.FindByEmail(data.Email)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", errors.New("пользователь с такой почтой уже зарегистрирован")
	}
	rec := dbmodels.User{
		Email:     data.Email,
		Password:  authutils.GetMD5Hash(data.Password),
		FirstName: data.FirstName,
		LastName:  data.LastName,
		Role:      data.Role,
		IsActive:  true,
	}
	id, err = i.store.Create(rec)
	if err != nil {
		logger.WithError(err).Error("ошибка создания пользователя")
		return "", err
	}
	logger.WithField("rec_id", id).Info("создан пользователь")
	return id, nil
}

func (i impl) GetByID(id string) (usersapimodels.UserView, error) {
	rec, err := i.store.GetByID(id)
	if err != nil {
		log.WithField("rec_id", id).WithError(err).Error("ошибка получения пользователя")
		return usersapimodels.UserView{}, err
	}
	if rec == nil {
		return usersapimodels.UserView{}, errors.New("пользователь не найден")
	}
	return usersapimodels.UserConvert(*rec), nil
}

func (i impl) List() ([]usersapimodels.UserView, error) {
	recList, err := i.store.List()
	if err != nil {
		log.WithError(err).Error("ошибка получения списка пользователей")
		return nil, err
	}
	result := make([]usersapimodels.UserView, 0, len(recList))
	for _, rec := range recList {
		result = append(result, usersapimodels.UserConvert(rec))
	}
	return result, nil
}

func (i impl) tokens(user *dbmodels.User) (authapimodels.LoginResponse, error) {
	accessToken, err := authutils.GetToken(user.ID, user.GetFullName(), user.Role)
	if err != nil {
		return authapimodels.LoginResponse{}, err
	}
	refreshToken, err := authutils.GetRefreshToken(user.ID, user.GetFullName())
	if err != nil {
		return authapimodels.LoginResponse{}, err
	}
	return authapimodels.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
