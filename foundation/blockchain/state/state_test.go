package state_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/pownode/foundation/blockchain/database"
	"github.com/ardanlabs/pownode/foundation/blockchain/genesis"
	"github.com/ardanlabs/pownode/foundation/blockchain/pow"
	"github.com/ardanlabs/pownode/foundation/blockchain/state"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func ifErrFailNow(t *testing.T, err error) {
	if err != nil {
		t.Error(err)
		t.FailNow()
	}
}

func newState(t *testing.T) *state.State {
	st, err := state.New(state.Config{
		NodeID: "miner1",
		EvHandler: func(v string, args ...any) {
			t.Logf(v, args...)
		},
	})
	ifErrFailNow(t, err)

	return st
}

// minedChain mines the specified number of blocks on a fresh node and
// returns its chain.
func minedChain(t *testing.T, blocks int) []database.Block {
	st := newState(t)
	for i := 0; i < blocks; i++ {
		_, err := st.Mine(context.Background())
		ifErrFailNow(t, err)
	}

	fc, err := st.RetrieveChain()
	ifErrFailNow(t, err)

	return fc.Chain
}

// peerServer starts a server answering the chain request the way a node does.
func peerServer(t *testing.T, blocks []database.Block) *httptest.Server {
	h := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chain" {
			http.NotFound(w, r)
			return
		}

		fc := state.FullChain{
			Chain:  blocks,
			Length: len(blocks),
		}
		json.NewEncoder(w).Encode(fc)
	}

	srv := httptest.NewServer(http.HandlerFunc(h))
	t.Cleanup(srv.Close)

	return srv
}

// offsetChain mines a linked chain whose first block has the specified index
// instead of zero.
func offsetChain(length int, offset uint64) []database.Block {
	now := time.Now().UTC()
	blocks := []database.Block{database.NewBlock(offset, now, nil, genesis.Proof, genesis.PreviousHash)}

	for len(blocks) < length {
		last := blocks[len(blocks)-1]
		proof := pow.Search(last.Proof, last.PreviousHash)

		trans := []database.Tx{genesis.RewardTx("peer")}
		blocks = append(blocks, database.NewBlock(offset+uint64(len(blocks)), now, trans, proof, last.Hash()))
	}

	return blocks
}

func sameChain(a []database.Block, b []database.Block) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Hash() != b[i].Hash() {
			return false
		}
	}
	return true
}

// =============================================================================

func Test_Mine(t *testing.T) {
	t.Log("Given the need to mine a block.")
	{
		st := newState(t)

		_, err := st.CreateTransaction("alice", "bob", 5)
		ifErrFailNow(t, err)

		before := st.RetrieveLatestBlock()

		block, err := st.Mine(context.Background())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine a block: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to mine a block.", success)

		fc, err := st.RetrieveChain()
		ifErrFailNow(t, err)

		if fc.Length != 2 || len(fc.Chain) != 2 {
			t.Fatalf("\t%s\tShould have a chain of 2 blocks, got %d.", failed, fc.Length)
		}
		t.Logf("\t%s\tShould have a chain of 2 blocks.", success)

		if block.Index != 1 {
			t.Fatalf("\t%s\tShould have index 1, got %d.", failed, block.Index)
		}
		t.Logf("\t%s\tShould have index 1.", success)

		if !pow.IsValid(genesis.Proof, block.Proof, genesis.PreviousHash) {
			t.Fatalf("\t%s\tShould have a proof that solves the genesis puzzle: %d", failed, block.Proof)
		}
		t.Logf("\t%s\tShould have a proof that solves the genesis puzzle.", success)

		if block.PreviousHash != before.Hash() {
			t.Fatalf("\t%s\tShould link to the genesis block digest.", failed)
		}
		t.Logf("\t%s\tShould link to the genesis block digest.", success)

		exp := []database.Tx{
			database.NewTx("alice", "bob", 5),
			database.NewTx(genesis.RewardSender, "miner1", genesis.MiningReward),
		}
		if len(block.Transactions) != len(exp) {
			t.Fatalf("\t%s\tShould have %d transactions, got %d.", failed, len(exp), len(block.Transactions))
		}
		for i := range exp {
			if block.Transactions[i] != exp[i] {
				t.Fatalf("\t%s\tShould have tx[%s], got tx[%s].", failed, exp[i], block.Transactions[i])
			}
		}
		t.Logf("\t%s\tShould have the pending transactions and the reward.", success)

		if n := len(st.RetrieveMempool()); n != 0 {
			t.Fatalf("\t%s\tShould have an empty pending pool, got %d.", failed, n)
		}
		t.Logf("\t%s\tShould have an empty pending pool.", success)

		if err := database.ValidateChain(fc.Chain); err != nil {
			t.Fatalf("\t%s\tShould have a valid chain: %v", failed, err)
		}
		t.Logf("\t%s\tShould have a valid chain.", success)
	}
}

func Test_MineMany(t *testing.T) {
	t.Log("Given the need to mine several blocks in a row.")
	{
		st := newState(t)

		for i := 1; i <= 3; i++ {
			length := st.RetrieveLatestBlock().Index + 1

			block, err := st.Mine(context.Background())
			ifErrFailNow(t, err)

			if block.Index != length {
				t.Fatalf("\t%s\tShould have index %d, got %d.", failed, length, block.Index)
			}
			if n := len(st.RetrieveMempool()); n != 0 {
				t.Fatalf("\t%s\tShould have an empty pending pool, got %d.", failed, n)
			}
		}
		t.Logf("\t%s\tShould grow the chain by one block per mine.", success)

		fc, err := st.RetrieveChain()
		ifErrFailNow(t, err)

		if err := database.ValidateChain(fc.Chain); err != nil {
			t.Fatalf("\t%s\tShould have a valid chain: %v", failed, err)
		}
		t.Logf("\t%s\tShould have a valid chain.", success)
	}
}

func Test_CreateTransaction(t *testing.T) {
	type table struct {
		name      string
		sender    string
		recipient string
		valid     bool
	}

	tt := []table{
		{name: "valid", sender: "alice", recipient: "bob", valid: true},
		{name: "no-sender", sender: "", recipient: "x", valid: false},
		{name: "no-recipient", sender: "x", recipient: "", valid: false},
	}

	t.Log("Given the need to create transactions.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling sender %q and recipient %q.", testID, tst.sender, tst.recipient)
				{
					st := newState(t)

					index, err := st.CreateTransaction(tst.sender, tst.recipient, 5)

					if !tst.valid {
						if !errors.Is(err, state.ErrInvalidArgument) {
							t.Fatalf("\t%s\tTest %d:\tShould fail with an invalid argument: %v", failed, testID, err)
						}
						if n := len(st.RetrieveMempool()); n != 0 {
							t.Fatalf("\t%s\tTest %d:\tShould not add to the pending pool, got %d.", failed, testID, n)
						}
						t.Logf("\t%s\tTest %d:\tShould fail with an invalid argument.", success, testID)
						return
					}

					ifErrFailNow(t, err)

					if index != 1 {
						t.Fatalf("\t%s\tTest %d:\tShould be slated for block 1, got %d.", failed, testID, index)
					}
					t.Logf("\t%s\tTest %d:\tShould be slated for the next block.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_RegisterPeers(t *testing.T) {
	t.Log("Given the need to register peers.")
	{
		st := newState(t)

		msg, err := st.RegisterPeers([]string{"localhost:54321", "http://localhost:54345", "localhost:54321"})
		ifErrFailNow(t, err)

		exp := "3 new nodes have been added: http://localhost:54321, http://localhost:54345, http://localhost:54321"
		if msg != exp {
			t.Logf("\t\tgot: %s", msg)
			t.Logf("\t\texp: %s", exp)
			t.Fatalf("\t%s\tShould get the summary message.", failed)
		}
		t.Logf("\t%s\tShould get the summary message.", success)

		if n := len(st.RetrieveKnownPeers()); n != 2 {
			t.Fatalf("\t%s\tShould know 2 distinct peers, got %d.", failed, n)
		}
		t.Logf("\t%s\tShould know 2 distinct peers.", success)

		if _, err := st.RegisterPeers(nil); !errors.Is(err, state.ErrInvalidArgument) {
			t.Fatalf("\t%s\tShould reject a missing address list: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a missing address list.", success)

		if _, err := st.RegisterPeers([]string{"localhost:1", ""}); !errors.Is(err, state.ErrInvalidArgument) {
			t.Fatalf("\t%s\tShould reject an empty address: %v", failed, err)
		}
		if n := len(st.RetrieveKnownPeers()); n != 2 {
			t.Fatalf("\t%s\tShould not add anything when one address is invalid, got %d.", failed, n)
		}
		t.Logf("\t%s\tShould reject an empty address without adding anything.", success)

		msg, err = st.RegisterPeers([]string{})
		ifErrFailNow(t, err)
		if msg != "0 new nodes have been added" {
			t.Fatalf("\t%s\tShould get the empty summary message, got %q.", failed, msg)
		}
		t.Logf("\t%s\tShould get the empty summary message.", success)
	}
}

func Test_ConsensusNoPeers(t *testing.T) {
	t.Log("Given the need to resolve conflicts without peers.")
	{
		st := newState(t)
		before, err := st.RetrieveChain()
		ifErrFailNow(t, err)

		replaced, err := st.Consensus(context.Background())
		ifErrFailNow(t, err)

		if replaced {
			t.Fatalf("\t%s\tShould not replace the chain.", failed)
		}

		after, err := st.RetrieveChain()
		ifErrFailNow(t, err)

		if !sameChain(before.Chain, after.Chain) {
			t.Fatalf("\t%s\tShould keep the same chain.", failed)
		}
		t.Logf("\t%s\tShould keep the same chain.", success)
	}
}

func Test_Consensus(t *testing.T) {
	type table struct {
		name     string
		peers    func(t *testing.T) (addresses []string, exp []database.Block)
		local    int
		replaced bool
	}

	tt := []table{
		{
			name: "longer-valid",
			peers: func(t *testing.T) ([]string, []database.Block) {
				blocks := minedChain(t, 2)
				return []string{peerServer(t, blocks).URL}, blocks
			},
			replaced: true,
		},
		{
			name: "longer-tampered",
			peers: func(t *testing.T) ([]string, []database.Block) {
				blocks := minedChain(t, 2)
				blocks[1].PreviousHash = strings.Repeat("0", 64)
				return []string{peerServer(t, blocks).URL}, nil
			},
			replaced: false,
		},
		{
			name: "shorter",
			peers: func(t *testing.T) ([]string, []database.Block) {
				blocks := minedChain(t, 1)
				return []string{peerServer(t, blocks).URL}, nil
			},
			local:    2,
			replaced: false,
		},
		{
			name: "same-length",
			peers: func(t *testing.T) ([]string, []database.Block) {
				blocks := minedChain(t, 1)
				return []string{peerServer(t, blocks).URL}, nil
			},
			local:    1,
			replaced: false,
		},
		{
			name: "unreachable-then-valid",
			peers: func(t *testing.T) ([]string, []database.Block) {
				dead := httptest.NewServer(http.NotFoundHandler())
				dead.Close()

				garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.Write([]byte("not json"))
				}))
				t.Cleanup(garbage.Close)

				blocks := minedChain(t, 2)
				return []string{dead.URL, garbage.URL, peerServer(t, blocks).URL}, blocks
			},
			replaced: true,
		},
		{
			name: "last-candidate-wins",
			peers: func(t *testing.T) ([]string, []database.Block) {
				longest := minedChain(t, 3)
				longer := minedChain(t, 2)
				return []string{peerServer(t, longest).URL, peerServer(t, longer).URL}, longer
			},
			replaced: true,
		},
	}

	t.Log("Given the need to resolve conflicts with peers.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling the %s case.", testID, tst.name)
				{
					st := newState(t)
					for i := 0; i < tst.local; i++ {
						_, err := st.Mine(context.Background())
						ifErrFailNow(t, err)
					}

					before, err := st.RetrieveChain()
					ifErrFailNow(t, err)

					addresses, exp := tst.peers(t)
					_, err = st.RegisterPeers(addresses)
					ifErrFailNow(t, err)

					replaced, err := st.Consensus(context.Background())
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to resolve conflicts: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to resolve conflicts.", success, testID)

					if replaced != tst.replaced {
						t.Fatalf("\t%s\tTest %d:\tShould report replaced=%v, got %v.", failed, testID, tst.replaced, replaced)
					}
					t.Logf("\t%s\tTest %d:\tShould report replaced=%v.", success, testID, tst.replaced)

					after, err := st.RetrieveChain()
					ifErrFailNow(t, err)

					if !tst.replaced {
						exp = before.Chain
					}

					if !sameChain(after.Chain, exp) {
						t.Fatalf("\t%s\tTest %d:\tShould have the expected chain, got %d blocks, exp %d.", failed, testID, len(after.Chain), len(exp))
					}
					t.Logf("\t%s\tTest %d:\tShould have the expected chain.", success, testID)

					if after.Length != len(after.Chain) || st.RetrieveLatestBlock().Hash() != after.Chain[len(after.Chain)-1].Hash() {
						t.Fatalf("\t%s\tTest %d:\tShould have a consistent tip.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould have a consistent tip.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_ConsensusThenMine(t *testing.T) {
	t.Log("Given the need to keep mining on an adopted chain.")
	{
		blocks := minedChain(t, 2)

		st := newState(t)
		_, err := st.RegisterPeers([]string{peerServer(t, blocks).URL})
		ifErrFailNow(t, err)

		replaced, err := st.Consensus(context.Background())
		ifErrFailNow(t, err)
		if !replaced {
			t.Fatalf("\t%s\tShould replace the chain.", failed)
		}

		block, err := st.Mine(context.Background())
		ifErrFailNow(t, err)

		if block.Index != 3 {
			t.Fatalf("\t%s\tShould mine block 3, got %d.", failed, block.Index)
		}

		fc, err := st.RetrieveChain()
		ifErrFailNow(t, err)

		if err := database.ValidateChain(fc.Chain); err != nil {
			t.Fatalf("\t%s\tShould extend the adopted chain validly: %v", failed, err)
		}
		t.Logf("\t%s\tShould extend the adopted chain validly.", success)
	}
}

func Test_NetRequestPeerChain(t *testing.T) {
	t.Log("Given the need to classify peer failures.")
	{
		st := newState(t)

		dead := httptest.NewServer(http.NotFoundHandler())
		dead.Close()

		fetch := func(address string) error {
			_, err := st.RegisterPeers([]string{address})
			ifErrFailNow(t, err)

			peers := st.RetrieveKnownPeers()
			_, err = st.NetRequestPeerChain(context.Background(), peers[len(peers)-1])
			return err
		}

		if err := fetch(dead.URL); !errors.Is(err, state.ErrPeerUnreachable) {
			t.Fatalf("\t%s\tShould report an unreachable peer: %v", failed, err)
		}
		t.Logf("\t%s\tShould report an unreachable peer.", success)

		notFound := httptest.NewServer(http.NotFoundHandler())
		t.Cleanup(notFound.Close)

		if err := fetch(notFound.URL); !errors.Is(err, state.ErrInvalidResponse) {
			t.Fatalf("\t%s\tShould report an invalid response: %v", failed, err)
		}
		t.Logf("\t%s\tShould report an invalid response.", success)
	}
}

func Test_ConsensusOffsetChain(t *testing.T) {
	t.Log("Given the need to skip a peer chain whose blocks are out of position.")
	{
		st := newState(t)
		_, err := st.Mine(context.Background())
		ifErrFailNow(t, err)

		before, err := st.RetrieveChain()
		ifErrFailNow(t, err)

		blocks := offsetChain(4, 10)
		if err := database.ValidateChain(blocks); err != nil {
			t.Fatalf("\t%s\tShould have a linked and mined peer chain: %v", failed, err)
		}

		_, err = st.RegisterPeers([]string{peerServer(t, blocks).URL})
		ifErrFailNow(t, err)

		replaced, err := st.Consensus(context.Background())
		if err != nil {
			t.Fatalf("\t%s\tShould not report the peer's chain as a failure: %v", failed, err)
		}
		if replaced {
			t.Fatalf("\t%s\tShould not adopt the peer's chain.", failed)
		}
		t.Logf("\t%s\tShould skip the peer's chain.", success)

		after, err := st.RetrieveChain()
		ifErrFailNow(t, err)

		if !sameChain(before.Chain, after.Chain) || after.Length != before.Length {
			t.Fatalf("\t%s\tShould keep the local chain, got %d blocks.", failed, after.Length)
		}
		t.Logf("\t%s\tShould keep the local chain.", success)

		block, err := st.Mine(context.Background())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to keep mining: %v", failed, err)
		}
		if block.Index != uint64(before.Length) {
			t.Fatalf("\t%s\tShould mine block %d, got %d.", failed, before.Length, block.Index)
		}
		t.Logf("\t%s\tShould be able to keep mining.", success)
	}
}
