package engine

import (
	"errors"
	"fmt"
)

// ErrNotAwaitingInput is returned by ContinueChat when the session has no
// pending input block to resume from.
var ErrNotAwaitingInput = errors.New("session is not awaiting input")

// GroupNotFoundError signals an edge targeting a group missing from the
// snapshot. Fatal: the walk aborts.
type GroupNotFoundError struct {
	GroupID string
}

func (e *GroupNotFoundError) Error() string {
	return fmt.Sprintf("group %s not found in flow", e.GroupID)
}

// BlockNotFoundError signals a reference to a block missing from the
// snapshot. Fatal: the walk aborts.
type BlockNotFoundError struct {
	BlockID string
}

func (e *BlockNotFoundError) Error() string {
	return fmt.Sprintf("block %s not found in flow", e.BlockID)
}

// EdgeNotFoundError signals a block referencing an edge missing from the
// snapshot. Fatal: the walk aborts.
type EdgeNotFoundError struct {
	EdgeID string
}

func (e *EdgeNotFoundError) Error() string {
	return fmt.Sprintf("edge %s not found in flow", e.EdgeID)
}

// InfiniteLoopError aborts a walk that visited more consecutive
// non-input blocks than the configured safety limit, which means the flow's
// logic blocks form a cycle with no input in it.
type InfiniteLoopError struct {
	Visited int
}

func (e *InfiniteLoopError) Error() string {
	return fmt.Sprintf("infinite loop detected after %d blocks without reaching an input", e.Visited)
}

// ValidationError rejects a user reply against the awaited input block's
// constraints. Not fatal: the caller re-prompts and the cursor stays put.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
