package database

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ardanlabs/agentchain/foundation/blockchain/digest"
)

// ZeroHash represents the previous hash of the genesis block.
const ZeroHash = "0000000000000000000000000000000000000000000000000000000000000000"

// RootCreator is the creator recorded on the genesis block.
const RootCreator = "ROOT"

// genesisSeed is the text hashed to produce the genesis block hash.
const genesisSeed = "Genesis"

// =============================================================================

// Block represents a single entry in a node's chain. A block is not changed
// once its proof of work completes.
type Block struct {
	Index        uint64  `json:"index" msgpack:"index"`               // Position in the chain.
	Timestamp    int64   `json:"timestamp" msgpack:"timestamp"`       // Creation time in milliseconds since the epoch.
	PreviousHash string  `json:"previousHash" msgpack:"previousHash"` // Hash of the predecessor block.
	Hash         string  `json:"hash" msgpack:"hash"`                 // Hash of this block.
	Creator      string  `json:"creator" msgpack:"creator"`           // Name of the node that mined the block.
	Nonce        *uint64 `json:"nonce,omitempty" msgpack:"nonce"`     // Value that solved the work problem.
	Data         string  `json:"data,omitempty" msgpack:"data"`       // Opaque payload.
}

// Genesis constructs the block every chain in a registry starts from. No
// mining is performed.
func Genesis(hasher digest.Hasher) Block {
	var nonce uint64

	return Block{
		Index:        0,
		Timestamp:    0,
		PreviousHash: ZeroHash,
		Hash:         hasher.Hash(genesisSeed),
		Creator:      RootCreator,
		Nonce:        &nonce,
	}
}

// BlockArgs represents the set of arguments required to construct a block.
type BlockArgs struct {
	Index         uint64
	PrevBlockHash string
	Creator       string
	Data          string
	Difficulty    uint
	Hasher        digest.Hasher
	EvHandler     func(v string, args ...any)
}

// NewBlock constructs a new block and performs the proof of work to find the
// nonce and hash. When the work produces no usable solution the block keeps
// its provisional hash and has no nonce. An error is only returned when the
// context is cancelled.
func NewBlock(ctx context.Context, args BlockArgs) (Block, error) {
	ev := args.EvHandler
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	timestamp := time.Now().UnixMilli()

	nb := Block{
		Index:        args.Index,
		Timestamp:    timestamp,
		PreviousHash: args.PrevBlockHash,
		Creator:      args.Creator,
		Data:         args.Data,
	}
	nb.Hash = args.Hasher.Hash(strconv.FormatUint(nb.Index, 10) + nb.PreviousHash + strconv.FormatInt(nb.Timestamp, 10))

	sol, err := POW(ctx, POWArgs{
		PrevBlockHash: nb.PreviousHash,
		Data:          nb.Data,
		Timestamp:     nb.Timestamp,
		Difficulty:    args.Difficulty,
		Hasher:        args.Hasher,
		EvHandler:     ev,
	})

	switch {
	case err == nil:
		nonce := sol.Nonce
		nb.Nonce = &nonce
		nb.Hash = sol.Hash

		ev("database: NewBlock: MINED: blk[%d]: creator[%s]: nonce[%d]: prevBlk[%s]: newBlk[%s]", nb.Index, nb.Creator, nonce, nb.PreviousHash, nb.Hash)

	case ctx.Err() != nil:
		return Block{}, err

	default:
		ev("database: NewBlock: WARNING: blk[%d]: %s: keeping provisional hash[%s]", nb.Index, err, nb.Hash)
	}

	return nb, nil
}

// Mined reports whether a proof of work nonce is recorded for the block.
func (b Block) Mined() bool {
	return b.Nonce != nil
}

// IsGenesis reports whether the block is the first block of a chain.
func (b Block) IsGenesis() bool {
	return b.Index == 0
}

// ValidateNext checks the block can be appended directly after the
// specified latest block.
func (b Block) ValidateNext(latestBlock Block) error {
	nextIndex := latestBlock.Index + 1
	if b.Index != nextIndex {
		return fmt.Errorf("invalid index, got %d, exp %d", b.Index, nextIndex)
	}

	if b.PreviousHash != latestBlock.Hash {
		return fmt.Errorf("unmatched previous hash, got %s, exp %s", b.PreviousHash, latestBlock.Hash)
	}

	return nil
}

// String implements the fmt.Stringer interface for logging.
func (b Block) String() string {
	return fmt.Sprintf("Block{index=%d, timestamp=%d, creator=%q}", b.Index, b.Timestamp, b.Creator)
}
