package flow

import (
	"encoding/json"
	"fmt"
)

// UnmarshalBlock decodes one block, dispatching on the "type" discriminator
// to the matching family struct. Unknown types are rejected rather than
// silently skipped: a published snapshot must never carry a block the
// engine cannot execute.
func UnmarshalBlock(data []byte) (Block, error) {
	var probe struct {
		Type BlockType `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("block has no readable type: %w", err)
	}

	switch {
	case probe.Type.IsBubble():
		var b BubbleBlock
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("decode bubble block: %w", err)
		}
		return &b, nil
	case probe.Type.IsInput():
		var b InputBlock
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("decode input block: %w", err)
		}
		return &b, nil
	case probe.Type.IsLogic():
		var b LogicBlock
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("decode logic block: %w", err)
		}
		return &b, nil
	case probe.Type.IsIntegration():
		var b IntegrationBlock
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("decode integration block: %w", err)
		}
		return &b, nil
	default:
		return nil, fmt.Errorf("unknown block type %q", probe.Type)
	}
}

type groupAlias struct {
	ID               string            `json:"id"`
	Title            string            `json:"title,omitempty"`
	GraphCoordinates GraphCoordinates  `json:"graphCoordinates,omitempty"`
	Blocks           []json.RawMessage `json:"blocks"`
}

// UnmarshalJSON decodes the group, reconstructing each block's concrete
// family type from its discriminator.
func (g *Group) UnmarshalJSON(data []byte) error {
	var alias groupAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	g.ID = alias.ID
	g.Title = alias.Title
	g.GraphCoordinates = alias.GraphCoordinates
	g.Blocks = make([]Block, 0, len(alias.Blocks))
	for i, raw := range alias.Blocks {
		block, err := UnmarshalBlock(raw)
		if err != nil {
			return fmt.Errorf("group %s block %d: %w", alias.ID, i, err)
		}
		g.Blocks = append(g.Blocks, block)
	}
	return nil
}

type logicBlockAlias struct {
	BaseBlock
	Options json.RawMessage `json:"options,omitempty"`
	Items   []ConditionItem `json:"items,omitempty"`
}

// UnmarshalJSON decodes the subtype-specific options of a logic block into
// the matching typed pointer.
func (b *LogicBlock) UnmarshalJSON(data []byte) error {
	var alias logicBlockAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	b.BaseBlock = alias.BaseBlock
	b.Items = alias.Items

	if len(alias.Options) == 0 {
		return nil
	}
	switch alias.Type {
	case BlockSetVariable:
		b.SetVariable = &SetVariableOptions{}
		return json.Unmarshal(alias.Options, b.SetVariable)
	case BlockRedirect:
		b.Redirect = &RedirectOptions{}
		return json.Unmarshal(alias.Options, b.Redirect)
	case BlockCode:
		b.Code = &CodeOptions{}
		return json.Unmarshal(alias.Options, b.Code)
	case BlockTypebotLink:
		b.TypebotLink = &TypebotLinkOptions{}
		return json.Unmarshal(alias.Options, b.TypebotLink)
	case BlockCondition:
		// Condition blocks keep their configuration in items.
		return nil
	default:
		return fmt.Errorf("unknown logic block type %q", alias.Type)
	}
}

// MarshalJSON re-emits the subtype-specific options under "options" so the
// snapshot round-trips byte-compatible with the builder format.
func (b *LogicBlock) MarshalJSON() ([]byte, error) {
	out := struct {
		BaseBlock
		Options any             `json:"options,omitempty"`
		Items   []ConditionItem `json:"items,omitempty"`
	}{
		BaseBlock: b.BaseBlock,
		Items:     b.Items,
	}
	switch {
	case b.SetVariable != nil:
		out.Options = b.SetVariable
	case b.Redirect != nil:
		out.Options = b.Redirect
	case b.Code != nil:
		out.Options = b.Code
	case b.TypebotLink != nil:
		out.Options = b.TypebotLink
	}
	return json.Marshal(out)
}
