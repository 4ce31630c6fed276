package database

import (
	"context"
	"errors"
	"math/big"
	"strconv"

	"github.com/ardanlabs/agentchain/foundation/blockchain/digest"
)

// ErrNoSolution is returned when the hash found by the search does not match
// the validation hash for the same nonce.
var ErrNoSolution = errors.New("proof of work produced no valid solution")

// MaxDifficulty is the largest meaningful number of leading zero bits.
const MaxDifficulty = 256

// cancelCheck sets how many attempts are made between context checks.
const cancelCheck = 1 << 10

// =============================================================================

// POWArgs represents the block header fields the work is performed over.
type POWArgs struct {
	PrevBlockHash string
	Data          string
	Timestamp     int64
	Difficulty    uint
	Hasher        digest.Hasher
	EvHandler     func(v string, args ...any)
}

// Solution represents the result of a successful proof of work.
type Solution struct {
	Nonce    uint64
	Hash     string
	Attempts uint64
}

// Target returns 2^(256-difficulty). A digest solves the puzzle when its
// value is strictly less than the target.
func Target(difficulty uint) *big.Int {
	if difficulty > MaxDifficulty {
		difficulty = MaxDifficulty
	}

	return new(big.Int).Lsh(big.NewInt(1), MaxDifficulty-difficulty)
}

// targetHex renders the low 32 bits of the target as unsigned hex. This is
// the value mixed into the work string.
func targetHex(target *big.Int) string {
	low := new(big.Int).And(target, big.NewInt(0xffffffff))
	return strconv.FormatUint(low.Uint64(), 16)
}

// POW searches nonces from zero until the digest of the candidate string is
// below the target for the difficulty. The search string includes the data
// field and the validation string does not, so only blocks with empty data
// produce a solution.
func POW(ctx context.Context, args POWArgs) (Solution, error) {
	ev := args.EvHandler
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	ev("database: POW: MINING: started: difficulty[%d]", args.Difficulty)
	defer ev("database: POW: MINING: completed")

	target := Target(args.Difficulty)
	tHex := targetHex(target)
	ts := strconv.FormatInt(args.Timestamp, 10)

	prefix := args.PrevBlockHash + args.Data + ts + tHex

	var hashInt big.Int
	var nonce uint64
	var hash string

	for attempts := uint64(1); ; attempts++ {
		if attempts%cancelCheck == 0 && ctx.Err() != nil {
			ev("database: POW: MINING: CANCELLED: attempts[%d]", attempts)
			return Solution{}, ctx.Err()
		}

		hash = args.Hasher.Hash(prefix + strconv.FormatUint(nonce, 16))
		hashInt.SetString(hash, 16)
		if hashInt.Cmp(target) < 0 {
			ev("database: POW: MINING: SOLVED: nonce[%d]: attempts[%d]", nonce, attempts)

			validation := args.Hasher.Hash(args.PrevBlockHash + ts + tHex + strconv.FormatUint(nonce, 16))
			if validation != hash {
				return Solution{}, ErrNoSolution
			}

			return Solution{Nonce: nonce, Hash: hash, Attempts: attempts}, nil
		}

		nonce++
	}
}

// IsHashSolved checks the hash value is below the target for the difficulty.
func IsHashSolved(difficulty uint, hash string) bool {
	if len(hash) != digest.Size {
		return false
	}

	hashInt, ok := new(big.Int).SetString(hash, 16)
	if !ok {
		return false
	}

	return hashInt.Cmp(Target(difficulty)) < 0
}
