package providers

import (
	"sort"
	"strings"

	"github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v3"
	"github.com/orchestra-mcp/relay/src/types"
	"github.com/valyala/fasthttp"
)

// WebSocketPath is where clients open the relay socket with ?token=<jwt>.
const WebSocketPath = "/ws"

// RegisterRoutes registers the relay's HTTP introspection routes via Fiber.
// The WebSocket upgrade itself uses FastHTTPHandler, since Fiber v3 does not
// expose *fasthttp.RequestCtx.
func (p *RelayPlugin) RegisterRoutes(group fiber.Router) {
	group.Get("/healthz", p.handleHealth)
	group.Get("/ws/info", p.handleInfo)
	group.Get("/ws/clients", p.handleClients)
	group.Get("/ws/clients/:id", p.handleClient)
	group.Get("/ws/rooms", p.handleRooms)
}

// App returns a Fiber app with the relay routes registered.
func (p *RelayPlugin) App() *fiber.App {
	app := fiber.New()
	p.RegisterRoutes(app)
	return app
}

// Handler serves WebSocketPath with FastHTTPHandler and everything else with app.
func (p *RelayPlugin) Handler(app *fiber.App) fasthttp.RequestHandler {
	ws := p.FastHTTPHandler()
	rest := app.Handler()
	return func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Path()) == WebSocketPath {
			ws(ctx)
			return
		}
		rest(ctx)
	}
}

func (p *RelayPlugin) handleHealth(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"ok": p.active})
}

func (p *RelayPlugin) handleInfo(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"websocket": true,
		"endpoint":  WebSocketPath,
		"clients":   p.hub.ClientCount(),
		"rooms":     len(p.hub.Rooms()),
	})
}

func (p *RelayPlugin) handleClients(c fiber.Ctx) error {
	ids := p.hub.ConnectedClients()
	infos := make([]types.ClientInfo, 0, len(ids))
	for _, id := range ids {
		// A client may disconnect between the two calls.
		if info := p.hub.ClientInfo(id); info != nil {
			infos = append(infos, *info)
		}
	}
	return c.JSON(fiber.Map{"clients": infos, "count": len(infos)})
}

func (p *RelayPlugin) handleClient(c fiber.Ctx) error {
	info := p.hub.ClientInfo(c.Params("id"))
	if info == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "client not found"})
	}
	return c.JSON(info)
}

func (p *RelayPlugin) handleRooms(c fiber.Ctx) error {
	rooms := p.hub.Rooms()
	ids := make([]int64, 0, len(rooms))
	for id := range rooms {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	result := make([]fiber.Map, 0, len(ids))
	for _, id := range ids {
		result = append(result, fiber.Map{"room_id": id, "members": rooms[id]})
	}
	return c.JSON(fiber.Map{"rooms": result, "count": len(result)})
}

// FastHTTPHandler returns a raw fasthttp handler for WebSocket upgrades.
// The token is read from the query before upgrading; verification happens
// on the open socket so a rejected client sees only a close.
func (p *RelayPlugin) FastHTTPHandler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		upgrade := string(ctx.Request.Header.Peek("Upgrade"))
		if !strings.EqualFold(upgrade, "websocket") {
			ctx.SetStatusCode(fasthttp.StatusUpgradeRequired)
			ctx.SetBodyString(`{"error":"upgrade_required","message":"WebSocket upgrade required"}`)
			return
		}

		token := string(ctx.QueryArgs().Peek("token"))
		err := p.upgrader.Upgrade(ctx, func(conn *websocket.Conn) {
			p.Accept(newFasthttpConn(conn, p.cfg.WriteTimeout, p.cfg.MaxMessageBytes), token)
		})
		if err != nil {
			p.logger.Error().Err(err).Msg("websocket upgrade failed")
		}
	}
}
