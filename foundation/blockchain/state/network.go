package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ardanlabs/pownode/foundation/blockchain/database"
	"github.com/ardanlabs/pownode/foundation/blockchain/peer"
)

// Set of errors returned when talking to a peer.
var (
	ErrPeerUnreachable = errors.New("peer unreachable")
	ErrInvalidResponse = errors.New("invalid peer response")
)

// baseURL is the path prefix of the api a peer serves.
const baseURL = "%s/v1"

// peerRequestTimeout bounds a single request to a peer so one stalled
// peer can't hold up the rest.
const peerRequestTimeout = 30 * time.Second

var client = http.Client{
	Timeout: peerRequestTimeout,
}

// NetRequestPeerChain asks the peer for its full chain.
func (s *State) NetRequestPeerChain(ctx context.Context, pr peer.Peer) ([]database.Block, error) {
	s.evHandler("state: NetRequestPeerChain: started: %s", pr)
	defer s.evHandler("state: NetRequestPeerChain: completed: %s", pr)

	url := fmt.Sprintf("%s/chain", fmt.Sprintf(baseURL, pr.Address))

	var fc FullChain
	if err := send(ctx, http.MethodGet, url, nil, &fc); err != nil {
		return nil, err
	}

	s.evHandler("state: NetRequestPeerChain: peer-node[%s]: length[%d]", pr, len(fc.Chain))

	return fc.Chain, nil
}

// =============================================================================

// send is a helper function to send an HTTP request to a node.
func send(ctx context.Context, method string, url string, dataSend any, dataRecv any) error {
	var body io.Reader

	if dataSend != nil {
		data, err := json.Marshal(dataSend)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrPeerUnreachable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrPeerUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%w: status %d", ErrInvalidResponse, resp.StatusCode)
		}
		return fmt.Errorf("%w: status %d: %s", ErrInvalidResponse, resp.StatusCode, bytes.TrimSpace(msg))
	}

	if dataRecv != nil {
		if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidResponse, err)
		}
	}

	return nil
}
