package pow_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ardanlabs/pownode/foundation/blockchain/hasher"
	"github.com/ardanlabs/pownode/foundation/blockchain/pow"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Search(t *testing.T) {
	type table struct {
		name         string
		lastProof    uint64
		previousHash string
	}

	tt := []table{
		{name: "genesis", lastProof: 100, previousHash: "1"},
		{name: "zero", lastProof: 0, previousHash: ""},
		{name: "digest", lastProof: 35293, previousHash: hasher.SumString("block")},
	}

	t.Log("Given the need to search for a proof of work.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling last proof %d and previous hash %q.", testID, tst.lastProof, tst.previousHash)
				{
					proof := pow.Search(tst.lastProof, tst.previousHash)

					if !pow.IsValid(tst.lastProof, proof, tst.previousHash) {
						t.Fatalf("\t%s\tTest %d:\tShould find a valid proof: %d", failed, testID, proof)
					}
					t.Logf("\t%s\tTest %d:\tShould find a valid proof.", success, testID)

					for v := uint64(0); v < proof; v++ {
						if pow.IsValid(tst.lastProof, v, tst.previousHash) {
							t.Fatalf("\t%s\tTest %d:\tShould find the smallest proof, %d is also valid.", failed, testID, v)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould find the smallest proof.", success, testID)

					if again := pow.Search(tst.lastProof, tst.previousHash); again != proof {
						t.Fatalf("\t%s\tTest %d:\tShould be deterministic, got %d, exp %d.", failed, testID, again, proof)
					}
					t.Logf("\t%s\tTest %d:\tShould be deterministic.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_IsValid(t *testing.T) {
	t.Log("Given the need to validate a proof of work.")
	{
		const lastProof = 100
		const previousHash = "1"

		proof := pow.Search(lastProof, previousHash)

		digest := hasher.SumString(fmt.Sprintf("%d%d%s", lastProof, proof, previousHash))
		if !strings.HasPrefix(digest, pow.Difficulty) {
			t.Fatalf("\t%s\tShould hash the concatenated values: %s", failed, digest)
		}
		t.Logf("\t%s\tShould hash the concatenated values.", success)
	}
}
