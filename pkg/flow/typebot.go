package flow

// Typebot is one published flow snapshot: the unit the engine executes.
// Lookup maps are built lazily and never serialized; cross references
// between groups, blocks and edges are by id only, so a snapshot survives
// a JSON round trip through session storage intact.
type Typebot struct {
	ID        string     `json:"id"`
	Name      string     `json:"name,omitempty"`
	Version   string     `json:"version,omitempty"`
	Groups    []Group    `json:"groups"`
	Edges     []Edge     `json:"edges"`
	Variables []Variable `json:"variables,omitempty"`
	Settings  Settings   `json:"settings,omitempty"`

	groupsByID map[string]*Group
	blocksByID map[string]Block
	edgesByID  map[string]*Edge
}

// Group is a positioned container of blocks, rendered as one node in the
// editor. Execution enters a group at its first block unless an edge targets
// a specific block.
type Group struct {
	ID               string           `json:"id"`
	Title            string           `json:"title,omitempty"`
	GraphCoordinates GraphCoordinates `json:"graphCoordinates,omitempty"`
	Blocks           []Block          `json:"blocks"`
}

// GraphCoordinates is the group's 2D position in the editor canvas.
// The engine carries it only so snapshots round-trip losslessly.
type GraphCoordinates struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Edge is a directed connection from a block (or one of its items) to a
// group or to a specific block inside a group.
type Edge struct {
	ID   string     `json:"id"`
	From EdgeSource `json:"from"`
	To   EdgeTarget `json:"to"`
}

// EdgeSource identifies the origin of an edge. ItemID is set when the edge
// hangs off a block item (choice button, condition branch, webhook outcome).
type EdgeSource struct {
	GroupID string `json:"groupId"`
	BlockID string `json:"blockId"`
	ItemID  string `json:"itemId,omitempty"`
}

// EdgeTarget identifies the destination. An empty BlockID means "enter at
// the group's first block".
type EdgeTarget struct {
	GroupID string `json:"groupId"`
	BlockID string `json:"blockId,omitempty"`
}

// Variable is a definition only: the value lives in the session bindings.
type Variable struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (t *Typebot) ensureIndex() {
	if t.groupsByID != nil {
		return
	}
	t.groupsByID = make(map[string]*Group, len(t.Groups))
	t.blocksByID = make(map[string]Block)
	t.edgesByID = make(map[string]*Edge, len(t.Edges))
	for i := range t.Groups {
		g := &t.Groups[i]
		t.groupsByID[g.ID] = g
		for _, b := range g.Blocks {
			t.blocksByID[b.BlockID()] = b
		}
	}
	for i := range t.Edges {
		t.edgesByID[t.Edges[i].ID] = &t.Edges[i]
	}
}

// GroupByID returns the group with the given id, or nil.
func (t *Typebot) GroupByID(id string) *Group {
	t.ensureIndex()
	return t.groupsByID[id]
}

// BlockByID returns the block with the given id, or nil.
func (t *Typebot) BlockByID(id string) Block {
	t.ensureIndex()
	return t.blocksByID[id]
}

// EdgeByID returns the edge with the given id, or nil.
func (t *Typebot) EdgeByID(id string) *Edge {
	t.ensureIndex()
	return t.edgesByID[id]
}

// VariableByID returns the variable definition with the given id, or nil.
func (t *Typebot) VariableByID(id string) *Variable {
	for i := range t.Variables {
		if t.Variables[i].ID == id {
			return &t.Variables[i]
		}
	}
	return nil
}

// VariableByName returns the variable definition with the exact name, or nil.
// Name matching is case-sensitive.
func (t *Typebot) VariableByName(name string) *Variable {
	for i := range t.Variables {
		if t.Variables[i].Name == name {
			return &t.Variables[i]
		}
	}
	return nil
}

// FirstGroup returns the entry group of the flow, or nil for an empty flow.
func (t *Typebot) FirstGroup() *Group {
	if len(t.Groups) == 0 {
		return nil
	}
	return &t.Groups[0]
}

// FirstBlock returns the first block of the group, or nil.
func (g *Group) FirstBlock() Block {
	if len(g.Blocks) == 0 {
		return nil
	}
	return g.Blocks[0]
}
