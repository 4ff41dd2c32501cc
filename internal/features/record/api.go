package record

import (
	"crm-access/internal/config"
	"crm-access/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type RecordApi struct {
	controller *RecordController
	config     *config.Config
}

func NewRecordApi(controller *RecordController, cfg *config.Config) *RecordApi {
	return &RecordApi{
		controller: controller,
		config:     cfg,
	}
}

func (h *RecordApi) Setup(app *fiber.App) {
	records := app.Group("/api/records", middleware.AuthMiddleware(h.config.SkipAuth))

	records.Get("/:module", h.controller.ListRecords)
	records.Get("/:module/:id", h.controller.GetRecord)
	records.Post("/:module", h.controller.CreateRecord)
	records.Put("/:module/:id", h.controller.UpdateRecord)
	records.Delete("/:module/:id", h.controller.DeleteRecord)
}
