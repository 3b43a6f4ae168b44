package ai

import (
	"fmt"
)

// SummarySystemPrompt frames the assistant for every completion request
const SummarySystemPrompt = "You are a helpful assistant for summarizing video content."

// BuildSummaryPrompt embeds the full transcript and the user's request
func BuildSummaryPrompt(transcript, query string) string {
	return fmt.Sprintf("Here is the transcript of a video:\n\n%s\n\nNow respond to the following request:\n%s", transcript, query)
}
