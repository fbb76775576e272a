// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ardanlabs/pownode/business/sys/metrics"
	"github.com/ardanlabs/pownode/business/web/errs"
	"github.com/ardanlabs/pownode/foundation/blockchain/state"
	"github.com/ardanlabs/pownode/foundation/blockchain/worker"
	"github.com/ardanlabs/pownode/foundation/events"
	"github.com/ardanlabs/pownode/foundation/validate"
	"github.com/ardanlabs/pownode/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Mine forges the next block and returns it.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	block, err := h.State.Mine(ctx)
	if err != nil {
		switch {
		case errors.Is(err, worker.ErrShutdown), errors.Is(err, worker.ErrMiningQueueFull):
			return errs.NewTrusted(err, http.StatusServiceUnavailable)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return errs.NewTrusted(errors.New("mining is still running, the block will be added"), http.StatusServiceUnavailable)
		}
		return fmt.Errorf("mining: %w", err)
	}

	metrics.AddMined(ctx)

	resp := mineResponse{
		Message:      "New Block Forged",
		Index:        block.Index,
		Transactions: block.Transactions,
		Proof:        block.Proof,
		PreviousHash: block.PreviousHash,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Chain returns the full chain held by this node.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	fc, err := h.State.RetrieveChain()
	if err != nil {
		return fmt.Errorf("retrieve chain: %w", err)
	}

	return web.Respond(ctx, w, fc, http.StatusOK)
}

// CreateTransaction adds a new transaction to the pending pool.
func (h Handlers) CreateTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var ntx NewTx
	if err := web.Decode(r, &ntx); err != nil {
		if validate.IsFieldErrors(err) {
			return err
		}
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("add tran", "traceid", v.TraceID, "sender", ntx.Sender, "recipient", ntx.Recipient, "amount", ntx.Amount)

	index, err := h.State.CreateTransaction(ntx.Sender, ntx.Recipient, ntx.Amount)
	if err != nil {
		if errors.Is(err, state.ErrInvalidArgument) {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return err
	}

	resp := messageResponse{
		Message: fmt.Sprintf("Your transaction will be included in block %d", index),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// RegisterNodes adds the provided addresses to the set of known peers.
func (h Handlers) RegisterNodes(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var rn RegisterNodes
	if err := web.Decode(r, &rn); err != nil {
		if validate.IsFieldErrors(err) {
			return err
		}
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	msg, err := h.State.RegisterPeers(rn.URLs)
	if err != nil {
		if errors.Is(err, state.ErrInvalidArgument) {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return err
	}

	return web.Respond(ctx, w, messageResponse{Message: msg}, http.StatusOK)
}

// Resolve runs consensus against the known peers and returns the chain
// the node holds afterwards.
func (h Handlers) Resolve(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	replaced, err := h.State.Consensus(ctx)
	if err != nil {
		return fmt.Errorf("consensus: %w", err)
	}

	fc, err := h.State.RetrieveChain()
	if err != nil {
		return fmt.Errorf("retrieve chain: %w", err)
	}

	msg := "Our chain is authoritative"
	if replaced {
		metrics.AddReplaced(ctx)
		msg = "Our chain was replaced"
	}

	resp := consensusResponse{
		Message: msg,
		Chain:   fc.Chain,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Peers returns the set of known peers.
func (h Handlers) Peers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	known := h.State.RetrieveKnownPeers()

	peers := make([]peer, len(known))
	for i, pr := range known {
		peers[i] = peer{Address: pr.Address}
	}

	return web.Respond(ctx, w, peers, http.StatusOK)
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	// The upgrade wrote the response.
	web.SetStatusCode(ctx, http.StatusSwitchingProtocols)

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}
