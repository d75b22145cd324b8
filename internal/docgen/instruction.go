package docgen

import (
	"strings"

	"github.com/lithammer/dedent"
)

// NoContentMarker is the reply expected for modules that only re-export.
const NoContentMarker = "# No content"

var instructionRules = strings.TrimSpace(dedent.Dedent(`
	Rules:
	- List an exposed method only when the module declares it with defineExpose; otherwise list none.
	- If the template does not fit this module, adapt it as you see fit.
	- If the module only imports and re-exports (like an index.ts), reply with exactly "` + NoContentMarker + `".
	- Reply with the markdown document only. Add no commentary and no explanation of your own.
`))

// Instruction builds the user message for one module.
func Instruction(content, example string) string {
	var b strings.Builder
	b.WriteString("Read the following .vue or .ts module:\n\n")
	b.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString("\nWrite its documentation following this markdown template:\n\n")
	b.WriteString(example)
	if !strings.HasSuffix(example, "\n") {
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(instructionRules)
	b.WriteByte('\n')
	return b.String()
}

// DefaultSystemPrompt is used when no prompt file is configured.
const DefaultSystemPrompt = "You are a technical writer for a Vue 3 component library. " +
	"You write accurate, concise markdown reference pages from source code."

// DefaultExample is the page template used when no example file is configured.
var DefaultExample = strings.TrimLeft(dedent.Dedent(`
	# ComponentName

	One sentence describing what the module is for.

	## Usage

	`+"```vue"+`
	<ComponentName />
	`+"```"+`

	## Props

	| Name | Type | Default | Description |
	|------|------|---------|-------------|

	## Events

	| Name | Payload | Description |
	|------|---------|-------------|

	## Slots

	| Name | Description |
	|------|-------------|

	## Exposed methods

	| Name | Signature | Description |
	|------|-----------|-------------|
`), "\n")
