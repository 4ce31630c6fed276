// Package database maintains the block data model, the proof of work
// algorithm and the in memory chain owned by a node.
package database

import (
	"errors"
	"fmt"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/jinzhu/copier"
)

// ErrEmptyChain is returned when the latest block is requested from a chain
// holding no blocks.
var ErrEmptyChain = errors.New("chain is empty")

// =============================================================================

// Chain maintains the ordered sequence of blocks owned by a single node. All
// access is serialized by one mutex.
type Chain struct {
	mu     sync.Mutex
	blocks []Block
	hashes mapset.Set[string]
}

// NewChain constructs a chain starting with the specified root block.
func NewChain(root Block) *Chain {
	c := Chain{
		hashes: mapset.NewThreadUnsafeSet[string](),
	}
	c.appendBlock(root)

	return &c
}

// Append adds the block to the end of the chain. No validation is performed.
func (c *Chain) Append(block Block) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.appendBlock(block)
}

// AppendNext validates the block against the latest block using the
// provided function and appends it when the function returns no error. The
// check and the append happen under the same lock.
func (c *Chain) AppendNext(block Block, validate func(latest Block, block Block) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.blocks) == 0 {
		return ErrEmptyChain
	}

	if err := validate(c.blocks[len(c.blocks)-1], block); err != nil {
		return err
	}

	c.appendBlock(block)

	return nil
}

// Merge appends every block whose hash is not already in the chain, in the
// order provided. The number of blocks appended is returned.
func (c *Chain) Merge(blocks []Block) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.merge(blocks)
}

// MergeIf performs a merge only when the chain currently holds exactly the
// specified number of blocks. The size check and the merge happen under the
// same lock.
func (c *Chain) MergeIf(size int, blocks []Block) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.blocks) != size {
		return 0, false
	}

	return c.merge(blocks), true
}

// Latest returns the last block in the chain.
func (c *Chain) Latest() (Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.blocks) == 0 {
		return Block{}, ErrEmptyChain
	}

	return c.blocks[len(c.blocks)-1], nil
}

// Size returns the number of blocks in the chain.
func (c *Chain) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.blocks)
}

// IsEmpty reports whether the chain holds no blocks.
func (c *Chain) IsEmpty() bool {
	return c.Size() == 0
}

// Snapshot returns a deep copy of the blocks in chain order.
func (c *Chain) Snapshot() ([]Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	blocks := make([]Block, 0, len(c.blocks))
	if err := copier.CopyWithOption(&blocks, c.blocks, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("copy blocks: %w", err)
	}

	return blocks, nil
}

// appendBlock must be called with the lock held.
func (c *Chain) appendBlock(block Block) {
	c.blocks = append(c.blocks, block)
	c.hashes.Add(block.Hash)
}

// merge must be called with the lock held.
func (c *Chain) merge(blocks []Block) int {
	var added int
	for _, block := range blocks {
		if c.hashes.Contains(block.Hash) {
			continue
		}

		c.appendBlock(block)
		added++
	}

	return added
}
