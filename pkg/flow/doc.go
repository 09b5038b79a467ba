// Package flow defines the published flow graph model: groups of blocks,
// the edges connecting them, variable definitions and channel settings.
//
// A Typebot value is an immutable published snapshot. The engine only reads
// it; all mutable conversation state lives in pkg/session. Blocks are a
// closed set of four families (bubble, input, logic, integration) expressed
// as a sealed interface so that walkers can type-switch exhaustively.
package flow
