// Package handlers contains the walletd API surface: a small read-only
// status API and a websocket stream of wallet activity events.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dimfeld/httptreemux/v5"
	"github.com/gonano/wallet/business/core/wallet"
	"github.com/gonano/wallet/foundation/events"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// MuxConfig contains all the mandatory systems required by handlers.
type MuxConfig struct {
	Build   string
	Log     *zap.SugaredLogger
	Account *wallet.Account
	Evts    *events.Events
}

// APIMux constructs a http.Handler with all application routes defined.
func APIMux(cfg MuxConfig) http.Handler {
	mux := httptreemux.NewContextMux()

	hdl := handlers{
		build:   cfg.Build,
		log:     cfg.Log,
		account: cfg.Account,
		evts:    cfg.Evts,
	}

	mux.Handle(http.MethodGet, "/v1/status", hdl.status)
	mux.Handle(http.MethodGet, "/v1/liveness", hdl.liveness)
	mux.Handle(http.MethodGet, "/v1/events", hdl.events)

	return mux
}

// =============================================================================

type handlers struct {
	build   string
	log     *zap.SugaredLogger
	account *wallet.Account
	evts    *events.Events
}

// status reports the wallet account's current state as the engine sees it.
func (h handlers) status(w http.ResponseWriter, r *http.Request) {
	state, err := h.account.State(r.Context())
	if err != nil {
		h.log.Errorw("status", "ERROR", err)
		respond(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	resp := statusResponse{
		Account: h.account.Address().String(),
		Opened:  state.IsOpened(),
		Balance: state.Balance().String(),
	}
	if frontier, ok := state.Frontier(); ok {
		resp.Frontier = frontier.String()
	}
	if rep, ok := state.Representative(); ok {
		resp.Representative = rep.String()
	}

	respond(w, http.StatusOK, resp)
}

// liveness is the health probe endpoint.
func (h handlers) liveness(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, livenessResponse{
		Status: "up",
		Build:  h.build,
	})
}

// events upgrades the connection to a websocket and streams wallet activity
// events until the client goes away.
func (h handlers) events(w http.ResponseWriter, r *http.Request) {
	var upgrader websocket.Upgrader

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorw("events", "ERROR", err)
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	ch := h.evts.Acquire(id)
	defer h.evts.Release(id)

	h.log.Infow("events", "status", "subscriber connected", "id", id)
	defer h.log.Infow("events", "status", "subscriber disconnected", "id", id)

	for event := range ch {
		if err := conn.WriteJSON(event); err != nil {
			return
		}
	}
}

// =============================================================================

type statusResponse struct {
	Account        string `json:"account"`
	Opened         bool   `json:"opened"`
	Balance        string `json:"balance"`
	Frontier       string `json:"frontier,omitempty"`
	Representative string `json:"representative,omitempty"`
}

type livenessResponse struct {
	Status string `json:"status"`
	Build  string `json:"build"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func respond(w http.ResponseWriter, statusCode int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(data)
}
