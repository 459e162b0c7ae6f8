package enrich

import (
	"fmt"
	"strings"
)

// StyleContext is optional per-user text injected into prompts purely as a
// style reference. It must never appear as content in generated output.
type StyleContext struct {
	Bio            string
	WritingSamples string
}

func (s StyleContext) empty() bool {
	return strings.TrimSpace(s.Bio) == "" && strings.TrimSpace(s.WritingSamples) == ""
}

// styleSection renders the style-reference block, or "" when no context is set.
func styleSection(style StyleContext) string {
	if style.empty() {
		return ""
	}

	var b strings.Builder
	b.WriteString("\nStyle reference (use ONLY to match tone and voice - this text must NEVER appear as content in your output):\n")
	if bio := strings.TrimSpace(style.Bio); bio != "" {
		b.WriteString("About the author: " + bio + "\n")
	}
	if samples := strings.TrimSpace(style.WritingSamples); samples != "" {
		b.WriteString("Writing samples: " + samples + "\n")
	}
	return b.String()
}

// titlePrompt asks for a compelling title within maxLength characters.
func titlePrompt(transcript string, maxLength int, style StyleContext) string {
	return fmt.Sprintf(`Create a compelling, concise title for this voice note transcript. The title should:
1. Be %d characters or less
2. Capture the main topic or insight
3. Be engaging and clickable
4. Avoid generic words like "Voice Note" unless necessary
%s
Transcript:
%s

Title:`, maxLength, styleSection(style), transcript)
}

// summaryWordThreshold selects between the short-form and structured summary
// prompt templates.
const summaryWordThreshold = 100

// shortSummaryPrompt is used for transcripts under the word threshold.
func shortSummaryPrompt(transcript string, style StyleContext) string {
	return fmt.Sprintf(`Summarize this short voice note transcript. The summary should:
1. Be 2-3 brief points capturing what was said
2. Be written in first person, as the speaker
3. Use ONLY content from the transcript - never invent facts
4. Be clean HTML: a short <p> intro and a <ul> of points
%s
Transcript:
%s

Summary:`, styleSection(style), transcript)
}

// longSummaryPrompt is used at or above the word threshold.
func longSummaryPrompt(transcript string, style StyleContext) string {
	return fmt.Sprintf(`Create a structured summary of this voice note transcript. Requirements:
1. Use ONLY content from the transcript - never invent facts
2. Write in first person, as the speaker
3. Output clean HTML with exactly these sections:
   <h3>Description</h3> - one-paragraph overview
   <h3>Key Points</h3> - a <ul> of the main takeaways
   <h3>Main Content</h3> - the substance, in a few paragraphs
   <h3>Summary</h3> - one closing paragraph
%s
Transcript:
%s`, styleSection(style), transcript)
}
