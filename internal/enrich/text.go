package enrich

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Sentence boundary: punctuation followed by whitespace.
var sentenceEnd = regexp.MustCompile(`([.!?]+)\s+`)

// Transition phrases that start a new paragraph when a sentence begins with
// one of them.
var transitionPhrases = []string{
	"So,", "Now,", "Finally,", "However,", "Anyway,",
	"First,", "Second,", "Next,", "Then,", "Also,",
}

// longSentenceChars forces a paragraph break after any sentence longer than
// this many characters.
const longSentenceChars = 100

// sentencesPerParagraph caps paragraph size when no break trigger fires.
const sentencesPerParagraph = 4

// splitSentences breaks flat text on sentence boundaries, keeping the
// terminal punctuation with each sentence.
func splitSentences(text string) []string {
	marked := sentenceEnd.ReplaceAllString(text, "$1\x00")
	parts := strings.Split(marked, "\x00")

	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}

func startsWithTransition(sentence string) bool {
	for _, phrase := range transitionPhrases {
		if strings.HasPrefix(sentence, phrase) {
			return true
		}
	}
	return false
}

// FormatTranscriptHTML re-segments a flat transcript into HTML paragraphs:
// groups of 3-4 sentences, broken early at transition phrases or after
// sentences over 100 characters. Used for the provider that returns
// unstructured transcripts.
func FormatTranscriptHTML(transcript string) string {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return ""
	}

	sentences := splitSentences(transcript)
	if len(sentences) == 0 {
		return "<p>" + transcript + "</p>"
	}

	var paragraphs []string
	var current []string

	flush := func() {
		if len(current) > 0 {
			paragraphs = append(paragraphs, "<p>"+strings.Join(current, " ")+"</p>")
			current = nil
		}
	}

	for _, s := range sentences {
		if len(current) > 0 && startsWithTransition(s) {
			flush()
		}
		current = append(current, s)
		if len(current) >= sentencesPerParagraph || len(s) > longSentenceChars {
			flush()
		}
	}
	flush()

	return strings.Join(paragraphs, "\n")
}

// Boilerplate prefixes models prepend to generated titles despite the prompt.
var titlePrefixes = []string{
	"Title:", "title:", "TITLE:",
	"Here's a title:", "Here is a title:",
	"Suggested title:",
}

// CleanTitle strips surrounding quotes and known boilerplate prefixes, then
// truncates to maxLength with an ellipsis if needed.
func CleanTitle(title string, maxLength int) string {
	title = strings.TrimSpace(title)

	for _, prefix := range titlePrefixes {
		title = strings.TrimSpace(strings.TrimPrefix(title, prefix))
	}

	for len(title) >= 2 {
		first, last := title[0], title[len(title)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			title = strings.TrimSpace(title[1 : len(title)-1])
			continue
		}
		break
	}

	// Generated titles sometimes come back multi-line; only the first counts.
	if idx := strings.IndexByte(title, '\n'); idx >= 0 {
		title = strings.TrimSpace(title[:idx])
	}

	if maxLength > 3 && utf8.RuneCountInString(title) > maxLength {
		title = truncateRunes(title, maxLength-3) + "..."
	}

	return title
}

// Truncate shortens s to max characters with an ellipsis. Used for the
// transcript-derived summary fallback.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return truncateRunes(s, max) + "..."
}

// truncateRunes cuts after n characters, never mid-rune.
func truncateRunes(s string, n int) string {
	for i := range s {
		if n == 0 {
			return s[:i]
		}
		n--
	}
	return s
}

// WordCount counts whitespace-separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
