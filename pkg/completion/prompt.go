package completion

import "fmt"

// SystemInstruction is sent as the system message of every completion.
const SystemInstruction = "Find the errors in the text and fix them"

const promptTemplate = `You are a senior software engineer. Fix the bug in the following code.
Return ONLY the corrected code block in its entirety, without any explanations, comments, or surrounding text.
Bug Description: %s
Code to fix (File: %s)

%s`

// BuildPrompt renders the user message. The code is embedded verbatim.
func BuildPrompt(bugDescription, code, filePath string) string {
	return fmt.Sprintf(promptTemplate, bugDescription, filePath, code)
}
