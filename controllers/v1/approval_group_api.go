package apiv1

import (
	"approval-backend/controllers"
	grouphandler "approval-backend/lib/approval/group"
	"approval-backend/middleware"
	apimodels "approval-backend/models/api"
	approvalapimodels "approval-backend/models/api/approval"

	"github.com/gofiber/fiber/v2"
)

type approvalGroupApiController struct {
	controllers.BaseAPIController
}

func InitApprovalGroupApiRouters(app *fiber.App) {
	controller := approvalGroupApiController{}
	app.Route("approval_group", func(router fiber.Router) {
		router.Get("", controller.list)
		router.Get(":id", controller.get)
		router.Use(middleware.AdminRoleRequired())
		router.Post("", controller.create)
		router.Put(":id", controller.update)
		router.Delete(":id", controller.delete)
	})
}

// @Summary Создание группы согласующих
// @Tags Группы согласующих
// @Description Создание группы согласующих
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 approvalapimodels.ApprovalGroupData	true	"request body"
// @Success 200 {object} apimodels.Response{data=string}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/approval_group [post]
func (c *approvalGroupApiController) create(ctx *fiber.Ctx) error {
	var payload approvalapimodels.ApprovalGroupData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}

	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	id, err := grouphandler.Instance.Create(payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка создания группы согласующих")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(id))
}

// @Summary Список групп согласующих
// @Tags Группы согласующих
// @Description Список групп согласующих
// @Param   Authorization		header		string	true	"Authorization token"
// @Success 200 {object} apimodels.Response{data=[]approvalapimodels.ApprovalGroupView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/approval_group [get]
func (c *approvalGroupApiController) list(ctx *fiber.Ctx) error {
	list, err := grouphandler.Instance.List()
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения списка групп")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Получение группы по ИД
// @Tags Группы согласующих
// @Description Получение группы по ИД
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  	true	"rec ID"
// @Success 200 {object} apimodels.Response{data=approvalapimodels.ApprovalGroupView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/approval_group/{id} [get]
func (c *approvalGroupApiController) get(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	item, err := grouphandler.Instance.GetByID(id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения группы согласующих")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(item))
}

// @Summary Обновление группы согласующих
// @Tags Группы согласующих
// @Description Обновление группы согласующих
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 approvalapimodels.ApprovalGroupData	true	"request body"
// @Param   id          		path    string  	true	"rec ID"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/approval_group/{id} [put]
func (c *approvalGroupApiController) update(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}

	var payload approvalapimodels.ApprovalGroupData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}

	if err = payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	err = grouphandler.Instance.Update(id, payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка обновления группы согласующих")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// @Summary Удаление группы согласующих
// @Tags Группы согласующих
// @Description Удаление группы согласующих
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  	true	"rec ID"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/approval_group/{id} [delete]
func (c *approvalGroupApiController) delete(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	err = grouphandler.Instance.Delete(id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка удаления группы согласующих")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}
