// Package analyzer derives display metadata from rich-text note content:
// word count, reading time, hashtag-style tags, and a coarse category.
// All functions are pure; content is HTML-like markup that is stripped
// before text measurements.
package analyzer

import (
	"regexp"
	"strings"
)

var (
	markupRe = regexp.MustCompile(`<[^>]+>`)
	spacesRe = regexp.MustCompile(`\s+`)
	tagRe    = regexp.MustCompile(`#(\w+)`)
)

const wordsPerMinute = 200

// CategoryGeneral is assigned when no category keyword matches.
const CategoryGeneral = "general"

// categories is the fixed vocabulary. Declaration order is the tie-break:
// the first category with any keyword hit wins.
var categories = []struct {
	name     string
	keywords []string
}{
	{"work", []string{"meeting", "project", "deadline", "task", "work"}},
	{"personal", []string{"family", "friend", "home", "personal", "life"}},
	{"study", []string{"study", "learn", "course", "book", "research"}},
	{"ideas", []string{"idea", "concept", "thought", "brainstorm", "creative"}},
}

// Result bundles everything derived from one document.
type Result struct {
	PlainText   string
	WordCount   int
	ReadingTime int
	Tags        []string
	Category    string
}

// Analyze computes the full derived set for a document.
func Analyze(content string) Result {
	text := StripMarkup(content)
	wc := WordCount(text)
	return Result{
		PlainText:   text,
		WordCount:   wc,
		ReadingTime: ReadingTime(wc),
		Tags:        ExtractTags(content),
		Category:    Categorize(content),
	}
}

// StripMarkup removes tags and collapses whitespace runs.
func StripMarkup(content string) string {
	text := markupRe.ReplaceAllString(content, " ")
	text = spacesRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// WordCount counts non-empty whitespace-separated tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// ReadingTime estimates minutes to read at 200 wpm, rounded up.
// An empty document reads in 0 minutes, not 1.
func ReadingTime(wordCount int) int {
	if wordCount <= 0 {
		return 0
	}
	return (wordCount + wordsPerMinute - 1) / wordsPerMinute
}

// ExtractTags returns #hashtag tokens, lower-cased, deduplicated, in
// order of first appearance.
func ExtractTags(content string) []string {
	matches := tagRe.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	var tags []string
	for _, m := range matches {
		tag := strings.ToLower(m[1])
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// Categorize assigns the first category whose keyword set has a substring
// hit in the lower-cased plain text, or CategoryGeneral.
func Categorize(content string) string {
	text := strings.ToLower(StripMarkup(content))
	for _, c := range categories {
		for _, kw := range c.keywords {
			if strings.Contains(text, kw) {
				return c.name
			}
		}
	}
	return CategoryGeneral
}
