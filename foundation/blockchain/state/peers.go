package state

import (
	"fmt"
	"strings"

	"github.com/ardanlabs/pownode/foundation/blockchain/peer"
)

// RegisterPeers adds the specified addresses to the set of known peers and
// returns a summary message. Every address is validated before any is added.
func (s *State) RegisterPeers(addresses []string) (string, error) {
	if addresses == nil {
		return "", fmt.Errorf("%w: provide urls to register", ErrInvalidArgument)
	}

	peers := make([]peer.Peer, len(addresses))
	for i, address := range addresses {
		pr, err := peer.New(address)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrInvalidArgument, err)
		}
		peers[i] = pr
	}

	urls := make([]string, len(peers))
	for i, pr := range peers {
		if s.knownPeers.Add(pr) {
			s.evHandler("state: RegisterPeers: adding peer-node %s", pr)
		}
		urls[i] = pr.Address
	}

	msg := fmt.Sprintf("%d new nodes have been added", len(peers))
	if len(urls) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(urls, ", "))
	}

	return msg, nil
}

// RetrieveKnownPeers retrieves a copy of the known peer list.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	return s.knownPeers.Copy()
}
