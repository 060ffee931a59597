package routes

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/transitlive/transitlive/pkg/bridge"
	"github.com/transitlive/transitlive/pkg/feed"
	"google.golang.org/protobuf/encoding/protojson"
)

const protobufContentType = "application/x-protobuf"

func FeedsRouter(router fiber.Router, liveBridge *bridge.Bridge) {
	router.Get("/trip-updates", feedHandler(liveBridge, feed.ClassTripUpdates))
	router.Get("/vehicle-positions", feedHandler(liveBridge, feed.ClassVehiclePositions))
	router.Get("/alerts", feedHandler(liveBridge, feed.ClassAlerts))
}

// feedHandler serves the published snapshot for one class. The binary feed is
// the default; ?format=json (or an Accept header asking for json) returns the
// protojson rendering for debugging.
func feedHandler(liveBridge *bridge.Bridge, class feed.Class) fiber.Handler {
	return func(c *fiber.Ctx) error {
		datasource := c.Query("datasource")

		wantsJson := c.Query("format") == "json" || strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON)

		snapshot := liveBridge.ReadSnapshot(class, datasource)

		if wantsJson {
			body, err := protojson.Marshal(snapshot.FeedMessage())
			if err != nil {
				return err
			}

			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

			return c.Send(body)
		}

		body, err := snapshot.Marshal()
		if err != nil {
			return err
		}

		c.Set(fiber.HeaderContentType, protobufContentType)

		return c.Send(body)
	}
}
