package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/transitlive/transitlive/pkg/api/routes"
	"github.com/transitlive/transitlive/pkg/bridge"
	"github.com/transitlive/transitlive/pkg/http_server"
)

func SetupServer(listen string, liveBridge *bridge.Bridge) error {
	webApp := fiber.New()
	webApp.Use(http_server.NewLogger())

	webApp.Get("/version", routes.APIVersion)

	routes.FeedsRouter(webApp.Group("/gtfs-rt"), liveBridge)

	webApp.Post("/reset", func(c *fiber.Ctx) error {
		liveBridge.Reset()

		return c.SendStatus(fiber.StatusNoContent)
	})

	return webApp.Listen(listen)
}
