package flow

import "fmt"

// Problem is one structural defect found in a snapshot.
type Problem struct {
	Code    string
	Message string
}

func (p Problem) String() string { return p.Code + ": " + p.Message }

func problemf(code, format string, args ...any) Problem {
	return Problem{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Lint checks the structural invariants of a published snapshot: no
// duplicate ids, an entry group, and no edge referencing a deleted group,
// block or item. The editor removes dangling edges eagerly, so any found
// here indicate a corrupted snapshot.
func Lint(t *Typebot) []Problem {
	var problems []Problem

	if len(t.Groups) == 0 {
		problems = append(problems, problemf("empty-flow", "typebot %s has no groups", t.ID))
		return problems
	}

	groupIDs := make(map[string]bool, len(t.Groups))
	blockIDs := make(map[string]bool)
	itemIDs := make(map[string]bool)
	edgeIDs := make(map[string]bool, len(t.Edges))

	for _, g := range t.Groups {
		if groupIDs[g.ID] {
			problems = append(problems, problemf("duplicate-group", "group id %s appears twice", g.ID))
		}
		groupIDs[g.ID] = true
		for _, b := range g.Blocks {
			if blockIDs[b.BlockID()] {
				problems = append(problems, problemf("duplicate-block", "block id %s appears twice", b.BlockID()))
			}
			blockIDs[b.BlockID()] = true
			switch block := b.(type) {
			case *InputBlock:
				for _, it := range block.Items {
					itemIDs[it.ID] = true
				}
			case *LogicBlock:
				for _, it := range block.Items {
					itemIDs[it.ID] = true
				}
			case *IntegrationBlock:
				for _, it := range block.Items {
					itemIDs[it.ID] = true
				}
			}
		}
	}

	for _, e := range t.Edges {
		if edgeIDs[e.ID] {
			problems = append(problems, problemf("duplicate-edge", "edge id %s appears twice", e.ID))
		}
		edgeIDs[e.ID] = true

		if !groupIDs[e.From.GroupID] {
			problems = append(problems, problemf("dangling-edge", "edge %s starts at missing group %s", e.ID, e.From.GroupID))
		}
		if e.From.BlockID != "" && !blockIDs[e.From.BlockID] {
			problems = append(problems, problemf("dangling-edge", "edge %s starts at missing block %s", e.ID, e.From.BlockID))
		}
		if e.From.ItemID != "" && !itemIDs[e.From.ItemID] {
			problems = append(problems, problemf("dangling-edge", "edge %s starts at missing item %s", e.ID, e.From.ItemID))
		}
		if !groupIDs[e.To.GroupID] {
			problems = append(problems, problemf("dangling-edge", "edge %s targets missing group %s", e.ID, e.To.GroupID))
		}
		if e.To.BlockID != "" && !blockIDs[e.To.BlockID] {
			problems = append(problems, problemf("dangling-edge", "edge %s targets missing block %s", e.ID, e.To.BlockID))
		}
	}

	// Blocks and items referencing edges that no longer exist.
	checkEdgeRef := func(owner, edgeID string) {
		if edgeID != "" && !edgeIDs[edgeID] {
			problems = append(problems, problemf("dangling-edge-ref", "%s references missing edge %s", owner, edgeID))
		}
	}
	for _, g := range t.Groups {
		for _, b := range g.Blocks {
			checkEdgeRef("block "+b.BlockID(), b.OutgoingEdge())
			switch block := b.(type) {
			case *InputBlock:
				for _, it := range block.Items {
					checkEdgeRef("item "+it.ID, it.OutgoingEdgeID)
				}
			case *LogicBlock:
				for _, it := range block.Items {
					checkEdgeRef("item "+it.ID, it.OutgoingEdgeID)
				}
			case *IntegrationBlock:
				for _, it := range block.Items {
					checkEdgeRef("item "+it.ID, it.OutgoingEdgeID)
				}
			}
		}
	}

	return problems
}
