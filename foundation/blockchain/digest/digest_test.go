package digest_test

import (
	"errors"
	"testing"

	"github.com/ardanlabs/agentchain/foundation/blockchain/digest"
)

func Test_Hash(t *testing.T) {
	type table struct {
		name      string
		algorithm string
		text      string
		hash      string
	}

	tt := []table{
		{
			name:      "sha256-empty",
			algorithm: digest.SHA256,
			text:      "",
			hash:      "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:      "sha256-abc",
			algorithm: digest.SHA256,
			text:      "abc",
			hash:      "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		},
		{
			name:      "keccak256-empty",
			algorithm: digest.Keccak256,
			text:      "",
			hash:      "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
		},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			h, err := digest.New(tst.algorithm)
			if err != nil {
				t.Fatalf("Should be able to construct a hasher: %s", err)
			}

			got := h.Hash(tst.text)
			if got != tst.hash {
				t.Logf("got: %s", got)
				t.Logf("exp: %s", tst.hash)
				t.Fatalf("Should get back the right hash.")
			}

			if len(got) != digest.Size {
				t.Fatalf("Should get back a hash of %d characters, got %d.", digest.Size, len(got))
			}

			if again := h.Hash(tst.text); again != got {
				t.Fatalf("Should get back the same hash twice.")
			}
		}

		t.Run(tst.name, f)
	}
}

func Test_UnsupportedAlgorithm(t *testing.T) {
	_, err := digest.New("md5")
	if !errors.Is(err, digest.ErrUnsupportedAlgorithm) {
		t.Logf("got: %v", err)
		t.Logf("exp: %v", digest.ErrUnsupportedAlgorithm)
		t.Fatalf("Should get back the unsupported algorithm error.")
	}
}
