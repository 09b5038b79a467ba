package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ndanaka/chatflow/pkg/condition"
	"github.com/ndanaka/chatflow/pkg/flow"
	"github.com/ndanaka/chatflow/pkg/integrations"
	"github.com/ndanaka/chatflow/pkg/ports"
	"github.com/ndanaka/chatflow/pkg/session"
	"github.com/ndanaka/chatflow/pkg/variables"
)

// target is the next position to resume the walk at: either an edge of the
// active frame, or a group entered directly (flow start, typebot link).
// afterBlock starts past blockID instead of on it, used to step off an
// answered input block that has no outgoing edge.
type target struct {
	edgeID     string
	groupID    string
	blockID    string
	afterBlock bool
}

type stepKind int

const (
	stepJump stepKind = iota
	stepPause
	stepDeadEnd
	stepEndFlow
)

type step struct {
	kind stepKind
	next target
}

// walker carries the per-invocation walk state. It visits blocks until an
// input block pauses it, the flow stack drains, or a hard error aborts it.
type walker struct {
	engine  *Engine
	state   *session.State
	reply   *Reply
	visited int
}

func (w *walker) run(ctx context.Context, t target) error {
	if len(w.state.TypebotsQueue) == 0 {
		w.complete(ctx, "", "")
		return nil
	}
	// Completion marks the root flow's result, even when the walk resumes
	// inside a linked child frame.
	root := w.state.TypebotsQueue[len(w.state.TypebotsQueue)-1]
	rootTypebotID, rootResultID := root.Typebot.ID, root.ResultID

	start := time.Now()
	defer func() {
		w.engine.hooks.EmitWalkDone(ctx, rootTypebotID, time.Since(start), w.visited)
	}()

	for {
		frame := w.state.Current()
		if frame == nil {
			w.complete(ctx, rootTypebotID, rootResultID)
			return nil
		}

		group, idx, err := w.resolve(frame, t)
		if err != nil {
			return err
		}

		next, err := w.runGroup(ctx, frame, group, idx)
		if err != nil {
			return err
		}

		switch next.kind {
		case stepJump:
			t = next.next
		case stepPause:
			return nil
		case stepEndFlow:
			w.complete(ctx, rootTypebotID, rootResultID)
			return nil
		case stepDeadEnd:
			resume, drained := w.popFrames()
			if drained {
				w.complete(ctx, rootTypebotID, rootResultID)
				return nil
			}
			t = target{edgeID: resume}
		}
	}
}

// resolve turns a target into a concrete group and starting block index
// within the active frame's snapshot.
func (w *walker) resolve(frame *session.Frame, t target) (*flow.Group, int, error) {
	groupID, blockID := t.groupID, t.blockID
	if t.edgeID != "" {
		edge := frame.Typebot.EdgeByID(t.edgeID)
		if edge == nil {
			return nil, 0, &EdgeNotFoundError{EdgeID: t.edgeID}
		}
		groupID, blockID = edge.To.GroupID, edge.To.BlockID
	}

	group := frame.Typebot.GroupByID(groupID)
	if group == nil {
		return nil, 0, &GroupNotFoundError{GroupID: groupID}
	}
	if blockID == "" {
		return group, 0, nil
	}
	for i, block := range group.Blocks {
		if block.BlockID() == blockID {
			if t.afterBlock {
				return group, i + 1, nil
			}
			return group, i, nil
		}
	}
	return nil, 0, &BlockNotFoundError{BlockID: blockID}
}

// runGroup executes the group's blocks in order starting at idx. A block
// with an outgoing edge jumps; one without falls through to the next block
// of the group; running off the end is a dead end.
func (w *walker) runGroup(ctx context.Context, frame *session.Frame, group *flow.Group, idx int) (step, error) {
	defs := frame.Typebot.Variables

	for i := idx; i < len(group.Blocks); i++ {
		block := group.Blocks[i]
		w.visited++
		if w.visited > w.engine.maxBlocks {
			return step{}, &InfiniteLoopError{Visited: w.visited}
		}
		w.engine.hooks.EmitBlockVisit(ctx, frame.Typebot.ID, block.BlockID(), string(block.BlockType()), blockFamily(block.BlockType()))

		switch b := block.(type) {
		case *flow.BubbleBlock:
			w.reply.Messages = append(w.reply.Messages, bubbleMessage(b, defs, frame.Variables))
			if b.OutgoingEdgeID != "" {
				return jump(b.OutgoingEdgeID), nil
			}

		case *flow.InputBlock:
			w.state.CurrentBlock = &session.Cursor{GroupID: group.ID, BlockID: b.ID}
			w.reply.Input = w.engine.buildPrompt(b, group.ID, defs, frame.Variables, frame.Typebot.Settings)
			return step{kind: stepPause}, nil

		case *flow.LogicBlock:
			s, done, err := w.runLogic(ctx, frame, b)
			if err != nil {
				return step{}, err
			}
			if done {
				return s, nil
			}

		case *flow.IntegrationBlock:
			s, done := w.runIntegration(ctx, frame, b)
			if done {
				return s, nil
			}

		default:
			return step{}, fmt.Errorf("unsupported block type %s", block.BlockType())
		}
	}
	return step{kind: stepDeadEnd}, nil
}

// runLogic handles one logic block. done=false means fall through to the
// next block of the group.
func (w *walker) runLogic(ctx context.Context, frame *session.Frame, b *flow.LogicBlock) (step, bool, error) {
	defs := frame.Typebot.Variables

	switch b.Type {
	case flow.BlockSetVariable:
		if opts := b.SetVariable; opts != nil && opts.VariableID != "" {
			value := w.engine.evaluateSetVariable(opts, defs, frame.Variables)
			frame.Variables = frame.Variables.Set(opts.VariableID, value)
		}

	case flow.BlockCondition:
		edgeID := condition.PickEdge(b, defs, frame.Variables)
		if edgeID == "" {
			return step{kind: stepDeadEnd}, true, nil
		}
		return jump(edgeID), true, nil

	case flow.BlockRedirect:
		if opts := b.Redirect; opts != nil && opts.URL != "" {
			w.reply.ClientActions = append(w.reply.ClientActions, ClientAction{
				Type: ActionRedirect,
				Redirect: &RedirectAction{
					URL:      variables.Substitute(opts.URL, defs, frame.Variables),
					IsNewTab: opts.IsNewTab,
				},
			})
			if !opts.IsNewTab {
				return step{kind: stepEndFlow}, true, nil
			}
		}

	case flow.BlockCode:
		if opts := b.Code; opts != nil && opts.Content != "" {
			w.reply.ClientActions = append(w.reply.ClientActions, ClientAction{
				Type: ActionCode,
				Code: &CodeAction{
					Name:    opts.Name,
					Content: variables.Substitute(opts.Content, defs, frame.Variables),
				},
			})
		}

	case flow.BlockTypebotLink:
		if b.TypebotLink != nil {
			t, err := w.pushLinkedFlow(ctx, frame, b)
			if err != nil {
				return step{}, false, err
			}
			return step{kind: stepJump, next: t}, true, nil
		}

	default:
		return step{}, false, fmt.Errorf("unsupported logic block type %s", b.Type)
	}

	if b.OutgoingEdgeID != "" {
		return jump(b.OutgoingEdgeID), true, nil
	}
	return step{}, false, nil
}

// runIntegration executes one integration block. Chatwoot is delegated to
// the client; the rest run server side through the executor. Failures never
// abort the walk, they surface as logs and follow the error outcome edge.
func (w *walker) runIntegration(ctx context.Context, frame *session.Frame, b *flow.IntegrationBlock) (step, bool) {
	defs := frame.Typebot.Variables

	if b.Type == flow.BlockChatwoot {
		w.reply.ClientActions = append(w.reply.ClientActions, ClientAction{
			Type:     ActionChatwoot,
			Chatwoot: b.Options,
		})
		if b.OutgoingEdgeID != "" {
			return jump(b.OutgoingEdgeID), true
		}
		return step{}, false
	}

	result := w.engine.executor.Execute(ctx, b, defs, frame.Variables)
	w.engine.hooks.EmitIntegration(ctx, frame.Typebot.ID, string(b.Type), result.Outcome == integrations.OutcomeError)

	if result.Log.Description != "" {
		w.reply.appendLog(result.Log)
		w.appendResultLog(ctx, frame.ResultID, result.Log)
	}
	for _, upd := range result.SetVariables {
		frame.Variables = frame.Variables.Set(upd.VariableID, upd.Value)
	}

	if edgeID := b.OutcomeEdge(result.Outcome); edgeID != "" {
		return jump(edgeID), true
	}
	return step{}, false
}

// pushLinkedFlow resolves the linked snapshot, seeds its bindings from the
// current frame by variable name, and pushes it as the active frame. The
// parent resumes at the link block's outgoing edge once the child drains.
func (w *walker) pushLinkedFlow(ctx context.Context, frame *session.Frame, b *flow.LogicBlock) (target, error) {
	opts := b.TypebotLink

	var linked flow.Typebot
	resultID := frame.ResultID
	switch opts.TypebotID {
	case "", flow.LinkedTypebotCurrent, frame.Typebot.ID:
		linked = frame.Typebot
	default:
		fetched, err := w.engine.flows.PublicTypebot(ctx, opts.TypebotID)
		if err != nil {
			return target{}, fmt.Errorf("loading linked flow %s: %w", opts.TypebotID, err)
		}
		linked = *fetched
		resultID, err = w.engine.createResult(ctx, linked.ID)
		if err != nil {
			return target{}, err
		}
	}

	var seeded variables.Bindings
	if linked.ID == frame.Typebot.ID {
		seeded = frame.Variables.Clone()
	} else {
		for _, binding := range frame.Variables {
			def := frame.Typebot.VariableByID(binding.ID)
			if def == nil {
				continue
			}
			if childDef := linked.VariableByName(def.Name); childDef != nil {
				seeded = seeded.Set(childDef.ID, binding.Value)
			}
		}
	}

	w.state.Push(session.Frame{
		Typebot:      linked,
		ResultID:     resultID,
		Variables:    seeded,
		ResumeEdgeID: b.OutgoingEdgeID,
	})

	if opts.GroupID != "" {
		if linked.GroupByID(opts.GroupID) == nil {
			return target{}, &GroupNotFoundError{GroupID: opts.GroupID}
		}
		return target{groupID: opts.GroupID}, nil
	}
	entry := linked.FirstGroup()
	if entry == nil {
		return target{}, &GroupNotFoundError{GroupID: "start"}
	}
	return target{groupID: entry.ID}, nil
}

// popFrames drops drained child frames until one exposes a resume edge.
// drained reports that only the root frame is left, which stays in place so
// callers can still inspect the final bindings.
func (w *walker) popFrames() (resumeEdgeID string, drained bool) {
	for {
		child := w.state.Current()
		if child == nil || len(w.state.TypebotsQueue) == 1 {
			return "", true
		}
		resume := child.ResumeEdgeID
		w.mergeIntoParent(child)
		w.state.Pop()
		if resume != "" {
			return resume, false
		}
	}
}

// mergeIntoParent copies the drained child's bindings back into the parent
// frame wherever a variable of the same name exists there.
func (w *walker) mergeIntoParent(child *session.Frame) {
	if len(w.state.TypebotsQueue) < 2 {
		return
	}
	parent := &w.state.TypebotsQueue[1]
	for _, binding := range child.Variables {
		def := child.Typebot.VariableByID(binding.ID)
		if def == nil {
			continue
		}
		if parentDef := parent.Typebot.VariableByName(def.Name); parentDef != nil {
			parent.Variables = parent.Variables.Set(parentDef.ID, binding.Value)
		}
	}
}

func (w *walker) complete(ctx context.Context, typebotID, resultID string) {
	w.reply.IsCompleted = true
	w.state.CurrentBlock = nil
	if resultID != "" && w.engine.results != nil {
		completed := true
		if err := w.engine.results.UpdateResult(ctx, resultID, ports.ResultPatch{IsCompleted: &completed}); err != nil {
			w.engine.logger.Warn("failed to mark result completed", "result", resultID, "error", err)
		}
	}
	if typebotID != "" {
		w.engine.hooks.EmitSessionEnd(ctx, typebotID, w.state.ID)
	}
}

func (w *walker) appendResultLog(ctx context.Context, resultID string, l ports.Log) {
	if w.engine.results == nil || resultID == "" {
		return
	}
	if err := w.engine.results.AppendLog(ctx, resultID, l); err != nil {
		w.engine.logger.Warn("failed to append result log", "result", resultID, "error", err)
	}
}

func jump(edgeID string) step {
	return step{kind: stepJump, next: target{edgeID: edgeID}}
}

func blockFamily(t flow.BlockType) string {
	switch {
	case t.IsBubble():
		return "bubble"
	case t.IsInput():
		return "input"
	case t.IsLogic():
		return "logic"
	case t.IsIntegration():
		return "integration"
	default:
		return "unknown"
	}
}

func bubbleMessage(b *flow.BubbleBlock, defs []flow.Variable, bindings variables.Bindings) Message {
	content := b.Content
	content.Text = variables.Substitute(content.Text, defs, bindings)
	content.URL = variables.Substitute(content.URL, defs, bindings)
	return Message{ID: uuid.NewString(), Type: b.Type, Content: content}
}
