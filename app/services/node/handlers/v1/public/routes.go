package public

import (
	"net/http"

	"github.com/ardanlabs/pownode/foundation/blockchain/state"
	"github.com/ardanlabs/pownode/foundation/events"
	"github.com/ardanlabs/pownode/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
}

// Routes binds all the public routes.
func Routes(app *web.App, cfg Config) {
	pbl := Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		WS:    websocket.Upgrader{},
		Evts:  cfg.Evts,
	}

	const version = "v1"

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/mine", pbl.Mine)
	app.Handle(http.MethodGet, version, "/chain", pbl.Chain)
	app.Handle(http.MethodPost, version, "/transactions/new", pbl.CreateTransaction)
	app.Handle(http.MethodPost, version, "/nodes/register", pbl.RegisterNodes)
	app.Handle(http.MethodGet, version, "/nodes/resolve", pbl.Resolve)
	app.Handle(http.MethodGet, version, "/nodes/list", pbl.Peers)
}
