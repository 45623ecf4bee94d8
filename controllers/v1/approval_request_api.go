package apiv1

import (
	"approval-backend/controllers"
	requesthandler "approval-backend/lib/request"
	"approval-backend/middleware"
	apimodels "approval-backend/models/api"
	requestapimodels "approval-backend/models/api/request"

	"github.com/gofiber/fiber/v2"
)

type approvalRequestApiController struct {
	controllers.BaseAPIController
}

func InitApprovalRequestApiRouters(app *fiber.App) {
	controller := approvalRequestApiController{}
	app.Route("request", func(router fiber.Router) {
		router.Get("", controller.list)
		router.Post("", controller.create)
		router.Route(":id", func(idRoute fiber.Router) {
			idRoute.Get("", controller.get)
			idRoute.Put("", controller.update)
			idRoute.Delete("", controller.delete)
		})
	})
}

// @Summary Создание заявки
// @Tags Заявки
// @Description Создание заявки, процесс согласования запускается автоматически
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 requestapimodels.ApprovalRequestData	true	"request body"
// @Success 200 {object} apimodels.Response{data=string}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/request [post]
func (c *approvalRequestApiController) create(ctx *fiber.Ctx) error {
	var payload requestapimodels.ApprovalRequestData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}

	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	userID := middleware.GetUserID(ctx)
	id, err := requesthandler.Instance.Create(userID, payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка создания заявки")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(id))
}

// @Summary Список заявок
// @Tags Заявки
// @Description Список заявок, с фильтром по автору
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   author_id			query		string	false	"фильтр по автору"
// @Success 200 {object} apimodels.Response{data=[]requestapimodels.ApprovalRequestView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/request [get]
func (c *approvalRequestApiController) list(ctx *fiber.Ctx) error {
	list, err := requesthandler.Instance.List(ctx.Query("author_id"))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения списка заявок")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Получение заявки по ИД
// @Tags Заявки
// @Description Получение заявки вместе с состоянием согласования
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  	true	"rec ID"
// @Success 200 {object} apimodels.Response{data=requestapimodels.ApprovalRequestView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/request/{id} [get]
func (c *approvalRequestApiController) get(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	item, err := requesthandler.Instance.GetByID(id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения заявки")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(item))
}

// @Summary Обновление заявки
// @Tags Заявки
// @Description Обновление заявки, по заявке с маршрутом процесс пересобирается
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 requestapimodels.ApprovalRequestData	true	"request body"
// @Param   id          		path    string  	true	"rec ID"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/request/{id} [put]
func (c *approvalRequestApiController) update(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}

	var payload requestapimodels.ApprovalRequestData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}

	if err = payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	userID := middleware.GetUserID(ctx)
	err = requesthandler.Instance.Update(id, userID, payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка обновления заявки")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// @Summary Удаление заявки
// @Tags Заявки
// @Description Удаление заявки автором либо администратором
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  	true	"rec ID"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/request/{id} [delete]
func (c *approvalRequestApiController) delete(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	userID := middleware.GetUserID(ctx)
	err = requesthandler.Instance.Delete(id, userID, middleware.IsAdmin(ctx))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка удаления заявки")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}
