package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	apimodels "approval-backend/models/api"
	"approval-backend/models"
)

type BaseAPIController struct{}

func (c *BaseAPIController) BodyParser(ctx *fiber.Ctx, out interface{}) error {
	if err := ctx.BodyParser(out); err != nil {
		log.WithError(err).Error("ошибка распознавания запроса")
		return errors.New("не удалось получить данные из запроса")
	}
	return nil
}

func (c *BaseAPIController) GetID(ctx *fiber.Ctx) (string, error) {
	id := ctx.Params("id")
	if id == "" {
		return "", errors.New("не указан идентификатор записи")
	}
	return id, nil
}

func (c *BaseAPIController) GetLogger(ctx *fiber.Ctx) *log.Entry {
	return log.
		WithField("method", ctx.Method()).
		WithField("path", ctx.Path())
}

func (c *BaseAPIController) SendError(ctx *fiber.Ctx, logger *log.Entry, err error, msg string) error {
	logger.WithError(err).Error(msg)
	status := fiber.StatusInternalServerError
	if errors.Is(err, models.ErrNotContributor) ||
		errors.Is(err, models.ErrRequestableNotFound) ||
		errors.Is(err, models.ErrRequestableTypeRequired) ||
		errors.Is(err, models.ErrRequestableTypeUnknown) {
		status = fiber.StatusBadRequest
	}
	return ctx.Status(status).JSON(apimodels.NewError(msg))
}
