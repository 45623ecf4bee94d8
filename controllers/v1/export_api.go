package apiv1

import (
	"approval-backend/controllers"
	exporthandler "approval-backend/lib/export"
	apimodels "approval-backend/models/api"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

type exportApiController struct {
	controllers.BaseAPIController
}

func InitExportApiRouters(app *fiber.App) {
	controller := exportApiController{}
	app.Route("export", func(router fiber.Router) {
		router.Get("registry", controller.registry)
		router.Get("sheet/:type/:id", controller.sheet)
	})
}

// @Summary Выгрузка реестра согласований
// @Tags Экспорт
// @Description Выгрузка реестра процессов согласования в xlsx
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   status				query		string	false	"фильтр по статусу"
// @Success 200 {file} file "xlsx файл"
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/export/registry [get]
func (c *exportApiController) registry(ctx *fiber.Ctx) error {
	fileName, data, err := exporthandler.Instance.Registry(ctx.Context(), ctx.Query("status"))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка выгрузки реестра согласований")
	}
	ctx.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set(fiber.HeaderContentDisposition, `attachment; filename="`+fileName+`"`)
	return ctx.Send(data)
}

// @Summary Лист согласования
// @Tags Экспорт
// @Description Печатный лист согласования по сущности в pdf
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   type          		path    string  	true	"тип сущности"
// @Param   id          		path    string  	true	"rec ID"
// @Success 200 {file} file "pdf файл"
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/export/sheet/{type}/{id} [get]
func (c *exportApiController) sheet(ctx *fiber.Ctx) error {
	requestableType := ctx.Params("type")
	if requestableType == "" {
		err := errors.New("не указан тип согласуемой сущности")
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	fileName, data, err := exporthandler.Instance.ApprovalSheet(ctx.Context(), requestableType, id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка формирования листа согласования")
	}
	ctx.Set(fiber.HeaderContentType, "application/pdf")
	ctx.Set(fiber.HeaderContentDisposition, `attachment; filename="`+fileName+`"`)
	return ctx.Send(data)
}
