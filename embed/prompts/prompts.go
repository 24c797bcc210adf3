package prompts

import _ "embed"

// System is the system prompt sent with every breakdown request.
//
//go:embed system.md
var System string

// Breakdown is the user prompt template. It takes the goal text as its
// single fmt argument.
//
//go:embed breakdown.md
var Breakdown string
