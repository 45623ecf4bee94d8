package apiv1

import (
	"approval-backend/controllers"
	approvalhandler "approval-backend/lib/approval"
	"approval-backend/middleware"
	apimodels "approval-backend/models/api"
	approvalapimodels "approval-backend/models/api/approval"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

type approvalApiController struct {
	controllers.BaseAPIController
}

func InitApprovalApiRouters(app *fiber.App) {
	controller := approvalApiController{}
	app.Route("approval", func(router fiber.Router) {
		router.Get("", controller.list)
		router.Route(":type/:id", func(recRoute fiber.Router) {
			recRoute.Post("", controller.store)
			recRoute.Get("", controller.get)
			recRoute.Put("approve", controller.approve)
			recRoute.Put("reject", controller.reject)
			recRoute.Put("cancel", controller.cancel)
			recRoute.Use(middleware.AdminRoleRequired())
			recRoute.Put("rollback", controller.rollback)
			recRoute.Put("force", controller.force)
		})
	})
}

func (c *approvalApiController) getRequestable(ctx *fiber.Ctx) (requestableType, id string, err error) {
	requestableType = ctx.Params("type")
	if requestableType == "" {
		return "", "", errors.New("не указан тип согласуемой сущности")
	}
	id, err = c.GetID(ctx)
	if err != nil {
		return "", "", err
	}
	return requestableType, id, nil
}

// @Summary Реестр процессов согласования
// @Tags Согласование
// @Description Реестр процессов согласования, с фильтром по статусу
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   status				query		string	false	"фильтр по статусу"
// @Success 200 {object} apimodels.Response{data=[]approvalapimodels.ApprovalEventView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/approval [get]
func (c *approvalApiController) list(ctx *fiber.Ctx) error {
	list, err := approvalhandler.Instance.List(ctx.Query("status"))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения реестра согласований")
	}
	views := make([]approvalapimodels.ApprovalEventView, 0, len(list))
	for _, rec := range list {
		views = append(views, approvalapimodels.ApprovalEventConvert(rec))
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(views))
}

// @Summary Запуск процесса согласования
// @Tags Согласование
// @Description Запуск процесса согласования по сущности
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   type          		path    string  	true	"тип сущности"
// @Param   id          		path    string  	true	"rec ID"
// @Success 200 {object} apimodels.Response{data=approvalapimodels.ApprovalEventView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/approval/{type}/{id} [post]
func (c *approvalApiController) store(ctx *fiber.Ctx) error {
	requestableType, id, err := c.getRequestable(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	rec, err := approvalhandler.Instance.Store(requestableType, id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка запуска процесса согласования")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(approvalapimodels.ApprovalEventConvert(*rec)))
}

// @Summary Состояние процесса согласования
// @Tags Согласование
// @Description Состояние процесса согласования по сущности
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   type          		path    string  	true	"тип сущности"
// @Param   id          		path    string  	true	"rec ID"
// @Success 200 {object} apimodels.Response{data=approvalapimodels.ApprovalEventView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/approval/{type}/{id} [get]
func (c *approvalApiController) get(ctx *fiber.Ctx) error {
	requestableType, id, err := c.getRequestable(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	rec, err := approvalhandler.Instance.Get(requestableType, id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения процесса согласования")
	}
	if rec == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(apimodels.NewError("процесс согласования не найден"))
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(approvalapimodels.ApprovalEventConvert(*rec)))
}

// @Summary Согласовать
// @Tags Согласование
// @Description Согласовать текущий либо указанный маской этап
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   type          		path    string  	true	"тип сущности"
// @Param   id          		path    string  	true	"rec ID"
// @Param	body body	 approvalapimodels.ActionData	true	"request body"
// @Success 200 {object} apimodels.Response{data=approvalapimodels.ApprovalEventView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/approval/{type}/{id}/approve [put]
func (c *approvalApiController) approve(ctx *fiber.Ctx) error {
	requestableType, id, err := c.getRequestable(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}

	var payload approvalapimodels.ActionData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	userID := middleware.GetUserID(ctx)
	rec, err := approvalhandler.Instance.Approve(requestableType, id, userID, payload.Mask)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка согласования")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(approvalapimodels.ApprovalEventConvert(*rec)))
}

// @Summary Отклонить
// @Tags Согласование
// @Description Отклонить текущий либо указанный маской этап
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   type          		path    string  	true	"тип сущности"
// @Param   id          		path    string  	true	"rec ID"
// @Param	body body	 approvalapimodels.ActionData	true	"request body"
// @Success 200 {object} apimodels.Response{data=approvalapimodels.ApprovalEventView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/approval/{type}/{id}/reject [put]
func (c *approvalApiController) reject(ctx *fiber.Ctx) error {
	requestableType, id, err := c.getRequestable(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}

	var payload approvalapimodels.ActionData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	userID := middleware.GetUserID(ctx)
	rec, err := approvalhandler.Instance.Reject(requestableType, id, userID, payload.Mask)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка отклонения")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(approvalapimodels.ApprovalEventConvert(*rec)))
}

// @Summary Отменить
// @Tags Согласование
// @Description Отменить согласование этапа либо процесс целиком
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   type          		path    string  	true	"тип сущности"
// @Param   id          		path    string  	true	"rec ID"
// @Param	body body	 approvalapimodels.ActionData	true	"request body"
// @Success 200 {object} apimodels.Response{data=approvalapimodels.ApprovalEventView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/approval/{type}/{id}/cancel [put]
func (c *approvalApiController) cancel(ctx *fiber.Ctx) error {
	requestableType, id, err := c.getRequestable(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}

	var payload approvalapimodels.ActionData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	userID := middleware.GetUserID(ctx)
	rec, err := approvalhandler.Instance.Cancel(requestableType, id, userID, payload.Mask)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка отмены согласования")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(approvalapimodels.ApprovalEventConvert(*rec)))
}

// @Summary Перезапуск процесса согласования
// @Tags Согласование
// @Description Пересборка этапов по актуальному маршруту, голоса сбрасываются
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   type          		path    string  	true	"тип сущности"
// @Param   id          		path    string  	true	"rec ID"
// @Success 200 {object} apimodels.Response{data=approvalapimodels.ApprovalEventView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/approval/{type}/{id}/rollback [put]
func (c *approvalApiController) rollback(ctx *fiber.Ctx) error {
	requestableType, id, err := c.getRequestable(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	rec, err := approvalhandler.Instance.Rollback(requestableType, id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка перезапуска согласования")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(approvalapimodels.ApprovalEventConvert(*rec)))
}

// @Summary Принудительное закрытие этапов
// @Tags Согласование
// @Description Принудительное проставление этапов без учёта голосов
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   type          		path    string  	true	"тип сущности"
// @Param   id          		path    string  	true	"rec ID"
// @Param	body body	 approvalapimodels.ForceData	true	"request body"
// @Success 200 {object} apimodels.Response{data=approvalapimodels.ApprovalEventView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/approval/{type}/{id}/force [put]
func (c *approvalApiController) force(ctx *fiber.Ctx) error {
	requestableType, id, err := c.getRequestable(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}

	var payload approvalapimodels.ForceData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}

	if err = payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	rec, err := approvalhandler.Instance.Force(requestableType, id, payload.Mask, payload.Status)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка принудительного согласования")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(approvalapimodels.ApprovalEventConvert(*rec)))
}
