package flow_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndanaka/chatflow/pkg/flow"
)

const snapshotJSON = `{
	"id": "bot1",
	"name": "Onboarding",
	"version": "3",
	"groups": [
		{
			"id": "g1",
			"title": "Welcome",
			"blocks": [
				{"id": "b1", "groupId": "g1", "type": "text", "content": {"text": "Hi {{Name}}!"}},
				{
					"id": "b2",
					"groupId": "g1",
					"type": "text input",
					"options": {"labels": {"placeholder": "Type your name"}, "variableId": "v1"},
					"outgoingEdgeId": "e1"
				}
			]
		},
		{
			"id": "g2",
			"title": "Branch",
			"blocks": [
				{
					"id": "b3",
					"groupId": "g2",
					"type": "Condition",
					"items": [
						{
							"id": "i1",
							"content": {
								"logicalOperator": "AND",
								"comparisons": [
									{"id": "c1", "variableId": "v1", "comparisonOperator": "Is set"}
								]
							},
							"outgoingEdgeId": "e2"
						}
					]
				},
				{
					"id": "b4",
					"groupId": "g2",
					"type": "Set variable",
					"options": {"variableId": "v2", "type": "Custom", "expressionToEvaluate": "{{Name}}!"}
				},
				{"id": "b5", "groupId": "g2", "type": "Webhook", "options": {"url": "https://api.example.com", "method": "GET"}}
			]
		}
	],
	"edges": [
		{"id": "e1", "from": {"groupId": "g1", "blockId": "b2"}, "to": {"groupId": "g2"}},
		{"id": "e2", "from": {"groupId": "g2", "blockId": "b3", "itemId": "i1"}, "to": {"groupId": "g1"}}
	],
	"variables": [
		{"id": "v1", "name": "Name"},
		{"id": "v2", "name": "Greeting"}
	]
}`

func TestTypebot_UnmarshalDispatchesBlockFamilies(t *testing.T) {
	var bot flow.Typebot
	require.NoError(t, json.Unmarshal([]byte(snapshotJSON), &bot))

	require.Len(t, bot.Groups, 2)

	bubble, ok := bot.Groups[0].Blocks[0].(*flow.BubbleBlock)
	require.True(t, ok)
	assert.Equal(t, flow.BlockText, bubble.Type)
	assert.Equal(t, "Hi {{Name}}!", bubble.Content.Text)

	input, ok := bot.Groups[0].Blocks[1].(*flow.InputBlock)
	require.True(t, ok)
	assert.Equal(t, "v1", input.Options.VariableID)
	assert.Equal(t, "e1", input.OutgoingEdgeID)

	cond, ok := bot.Groups[1].Blocks[0].(*flow.LogicBlock)
	require.True(t, ok)
	require.Len(t, cond.Items, 1)
	assert.Equal(t, flow.OperatorIsSet, cond.Items[0].Content.Comparisons[0].ComparisonOperator)

	setVar, ok := bot.Groups[1].Blocks[1].(*flow.LogicBlock)
	require.True(t, ok)
	require.NotNil(t, setVar.SetVariable)
	assert.Equal(t, "v2", setVar.SetVariable.VariableID)
	assert.Equal(t, flow.SetVariableCustom, setVar.SetVariable.Kind)

	webhook, ok := bot.Groups[1].Blocks[2].(*flow.IntegrationBlock)
	require.True(t, ok)
	assert.Equal(t, "https://api.example.com", webhook.Options["url"])
}

func TestTypebot_Lookups(t *testing.T) {
	var bot flow.Typebot
	require.NoError(t, json.Unmarshal([]byte(snapshotJSON), &bot))

	assert.NotNil(t, bot.GroupByID("g2"))
	assert.Nil(t, bot.GroupByID("nope"))
	assert.NotNil(t, bot.BlockByID("b3"))
	assert.NotNil(t, bot.EdgeByID("e1"))
	assert.Equal(t, "g1", bot.FirstGroup().ID)

	def := bot.VariableByName("Name")
	require.NotNil(t, def)
	assert.Equal(t, "v1", def.ID)
}

func TestUnmarshalBlock_UnknownTypeRejected(t *testing.T) {
	_, err := flow.UnmarshalBlock([]byte(`{"id": "x", "type": "teleport"}`))
	assert.ErrorContains(t, err, "unknown block type")
}

func TestLogicBlock_MarshalRoundTrip(t *testing.T) {
	block := &flow.LogicBlock{
		BaseBlock: flow.BaseBlock{ID: "b1", GroupID: "g1", Type: flow.BlockRedirect},
		Redirect:  &flow.RedirectOptions{URL: "https://example.com", IsNewTab: true},
	}

	data, err := json.Marshal(block)
	require.NoError(t, err)

	decoded, err := flow.UnmarshalBlock(data)
	require.NoError(t, err)

	logic, ok := decoded.(*flow.LogicBlock)
	require.True(t, ok)
	require.NotNil(t, logic.Redirect)
	assert.Equal(t, "https://example.com", logic.Redirect.URL)
	assert.True(t, logic.Redirect.IsNewTab)
}

func TestLint_AcceptsValidSnapshot(t *testing.T) {
	var bot flow.Typebot
	require.NoError(t, json.Unmarshal([]byte(snapshotJSON), &bot))

	assert.Empty(t, flow.Lint(&bot))
}

func TestLint_DetectsDanglingEdgeTarget(t *testing.T) {
	var bot flow.Typebot
	require.NoError(t, json.Unmarshal([]byte(snapshotJSON), &bot))
	bot.Edges[0].To.GroupID = "missing"

	problems := flow.Lint(&bot)
	require.NotEmpty(t, problems)
	assert.Contains(t, problems[0].Message, "missing")
}

func TestLint_DetectsEmptyFlow(t *testing.T) {
	bot := flow.Typebot{ID: "empty"}
	assert.NotEmpty(t, flow.Lint(&bot))
}
