package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/agentchain/foundation/blockchain/database"
)

// ErrInvalidBlock is returned when a block does not extend the latest block
// in the chain.
var ErrInvalidBlock = errors.New("invalid block")

// =============================================================================

// MineNewBlock constructs the next block on top of the latest block, performs
// the proof of work and appends the block when it still extends the chain.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: retrieve latest block")

	latestBlock, err := s.chain.Latest()
	if err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: MineNewBlock: MINING: perform POW: blk[%d]", latestBlock.Index+1)

	block, err := database.NewBlock(ctx, database.BlockArgs{
		Index:         latestBlock.Index + 1,
		PrevBlockHash: latestBlock.Hash,
		Creator:       s.name,
		Difficulty:    s.difficulty,
		Hasher:        s.hasher,
		EvHandler:     s.evHandler,
	})
	if err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: MineNewBlock: MINING: %s created new block %s", s.name, block)

	// Another node's block may have been appended while mining.
	if err := s.validateUpdateChain(block); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// ProcessProposedBlock takes a block received from a peer, validates it and
// if that passes, adds the block to the local chain.
func (s *State) ProcessProposedBlock(block database.Block) error {
	s.evHandler("state: ProcessProposedBlock: started: prevBlk[%s]: newBlk[%s]", block.PreviousHash, block.Hash)
	defer s.evHandler("state: ProcessProposedBlock: completed: newBlk[%s]", block.Hash)

	return s.validateUpdateChain(block)
}

// =============================================================================

// validateUpdateChain validates the block against the latest block and
// appends it, holding the chain lock for both steps.
func (s *State) validateUpdateChain(block database.Block) error {
	validate := func(latest database.Block, block database.Block) error {
		if err := block.ValidateNext(latest); err != nil {
			s.evHandler("state: validateUpdateChain: WARNING: blk[%d]: %s", block.Index, err)
			return fmt.Errorf("%w: %s", ErrInvalidBlock, err)
		}
		return nil
	}

	if err := s.chain.AppendNext(block, validate); err != nil {
		return err
	}

	s.evHandler("state: validateUpdateChain: appended: blk[%d]: size[%d]", block.Index, s.chain.Size())

	return nil
}
