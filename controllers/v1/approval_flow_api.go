package apiv1

import (
	"approval-backend/controllers"
	flowhandler "approval-backend/lib/approval/flow"
	"approval-backend/middleware"
	apimodels "approval-backend/models/api"
	approvalapimodels "approval-backend/models/api/approval"

	"github.com/gofiber/fiber/v2"
)

type approvalFlowApiController struct {
	controllers.BaseAPIController
}

func InitApprovalFlowApiRouters(app *fiber.App) {
	controller := approvalFlowApiController{}
	app.Route("approval_flow", func(router fiber.Router) {
		router.Get("", controller.list)
		router.Use(middleware.AdminRoleRequired())
		router.Post("", controller.create)
		router.Route(":id", func(idRoute fiber.Router) {
			idRoute.Get("", controller.get)
			idRoute.Put("", controller.update)
			idRoute.Delete("", controller.delete)
			idRoute.Put("bind", controller.bind)
		})
		router.Put("unbind", controller.unbind)
	})
}

// @Summary Создание маршрута согласования
// @Tags Маршруты согласования
// @Description Создание маршрута согласования
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 approvalapimodels.ApprovalFlowData	true	"request body"
// @Success 200 {object} apimodels.Response{data=string}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/approval_flow [post]
func (c *approvalFlowApiController) create(ctx *fiber.Ctx) error {
	var payload approvalapimodels.ApprovalFlowData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}

	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	id, err := flowhandler.Instance.Create(payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка создания маршрута согласования")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(id))
}

// @Summary Список маршрутов согласования
// @Tags Маршруты согласования
// @Description Список маршрутов согласования
// @Param   Authorization		header		string	true	"Authorization token"
// @Success 200 {object} apimodels.Response{data=[]approvalapimodels.ApprovalFlowView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/approval_flow [get]
func (c *approvalFlowApiController) list(ctx *fiber.Ctx) error {
	list, err := flowhandler.Instance.List()
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения списка маршрутов")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Получение маршрута по ИД
// @Tags Маршруты согласования
// @Description Получение маршрута по ИД
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  	true	"rec ID"
// @Success 200 {object} apimodels.Response{data=approvalapimodels.ApprovalFlowView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/approval_flow/{id} [get]
func (c *approvalFlowApiController) get(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	item, err := flowhandler.Instance.GetByID(id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения маршрута согласования")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(item))
}

// @Summary Обновление маршрута согласования
// @Tags Маршруты согласования
// @Description Обновление маршрута согласования
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 approvalapimodels.ApprovalFlowData	true	"request body"
// @Param   id          		path    string  	true	"rec ID"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/approval_flow/{id} [put]
func (c *approvalFlowApiController) update(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}

	var payload approvalapimodels.ApprovalFlowData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}

	if err = payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	err = flowhandler.Instance.Update(id, payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка обновления маршрута согласования")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// @Summary Удаление маршрута согласования
// @Tags Маршруты согласования
// @Description Удаление маршрута согласования
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  	true	"rec ID"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/approval_flow/{id} [delete]
func (c *approvalFlowApiController) delete(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	err = flowhandler.Instance.Delete(id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка удаления маршрута согласования")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// @Summary Привязка маршрута к типу сущности
// @Tags Маршруты согласования
// @Description Привязка маршрута к типу сущности
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 approvalapimodels.BindingData	true	"request body"
// @Param   id          		path    string  	true	"rec ID"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/approval_flow/{id}/bind [put]
func (c *approvalFlowApiController) bind(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}

	var payload approvalapimodels.BindingData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}

	if err = payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	err = flowhandler.Instance.Bind(id, payload.RequestableType)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка привязки маршрута согласования")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// @Summary Отвязка маршрута от типа сущности
// @Tags Маршруты согласования
// @Description Отвязка маршрута от типа сущности
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 approvalapimodels.BindingData	true	"request body"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/approval_flow/unbind [put]
func (c *approvalFlowApiController) unbind(ctx *fiber.Ctx) error {
	var payload approvalapimodels.BindingData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}

	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	err := flowhandler.Instance.Unbind(payload.RequestableType)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка отвязки маршрута согласования")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}
