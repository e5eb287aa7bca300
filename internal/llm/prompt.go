package llm

import (
	"fmt"
	"strings"
)

// SystemPrompt builds the instruction block sent ahead of the transcript.
func SystemPrompt(env Environment) string {
	var b strings.Builder
	b.WriteString("Give me the answer in a single triple backtick block of code.\n")
	b.WriteString("When answering a fix, don't repeat the previous code in a triple backtick block, only show its fix.\n")
	b.WriteString("When fixing, don't fixate on one type of answer only, look for alternative ways.\n")
	b.WriteString("When constructing complex commands, separate the steps with line breaks.\n")
	b.WriteString("If one way doesn't work, take previous messages into account to notice when an approach is not fit.\n")
	fmt.Fprintf(&b, "Take into account that %s is your current OS.\n", env.OS)
	fmt.Fprintf(&b, "Your solutions will be run in the %s terminal.\n", env.Shell)
	return b.String()
}

// IntentPrompt turns the user's wish into the first user entry.
func IntentPrompt(os, intent string) string {
	return fmt.Sprintf("Make a %s terminal command that %s", os, intent)
}
