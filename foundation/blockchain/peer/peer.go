// Package peer maintains the peer related information such as the set
// of known peers.
package peer

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// ErrInvalidAddress is returned when an address can't be turned into a
// peer URI.
var ErrInvalidAddress = errors.New("invalid peer address")

// DefaultScheme is assumed for addresses registered without one.
const DefaultScheme = "http"

// Peer represents information about a Node in the network.
type Peer struct {
	Address string `json:"address"`
}

// New constructs a peer from the specified address. An address without a
// scheme, like "localhost:8080", is assumed to be reachable over http.
func New(address string) (Peer, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Peer{}, fmt.Errorf("%w: address is empty", ErrInvalidAddress)
	}

	if !strings.Contains(address, "://") {
		address = DefaultScheme + "://" + address
	}

	u, err := url.Parse(address)
	if err != nil {
		return Peer{}, fmt.Errorf("%w: %s", ErrInvalidAddress, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return Peer{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidAddress, u.Scheme)
	}

	if u.Host == "" {
		return Peer{}, fmt.Errorf("%w: missing host in %q", ErrInvalidAddress, address)
	}

	return Peer{Address: strings.TrimSuffix(u.String(), "/")}, nil
}

// String implements the fmt.Stringer interface for logging.
func (p Peer) String() string {
	return p.Address
}

// =============================================================================

// PeerSet represents the data representation to maintain a set of known
// peers. Peers are kept in the order they were added and can't be removed.
type PeerSet struct {
	mu    sync.RWMutex
	set   map[Peer]struct{}
	order []Peer
}

// NewPeerSet constructs a new info set to manage node peer information.
func NewPeerSet() *PeerSet {
	return &PeerSet{
		set: make(map[Peer]struct{}),
	}
}

// Add adds a new node to the set. It returns false if the node was
// already known.
func (ps *PeerSet) Add(peer Peer) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if _, exists := ps.set[peer]; exists {
		return false
	}

	ps.set[peer] = struct{}{}
	ps.order = append(ps.order, peer)

	return true
}

// Len returns the number of known peers.
func (ps *PeerSet) Len() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	return len(ps.order)
}

// Copy returns a list of the known peers in the order they were added.
func (ps *PeerSet) Copy() []Peer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	peers := make([]Peer, len(ps.order))
	copy(peers, ps.order)

	return peers
}
