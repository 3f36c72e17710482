package summarizer

import "regexp"

var (
	captionLine     = regexp.MustCompile(`(?im)^[ \t]*(?:figure|fig\.|table)[ \t]*\d+[.:].*$`)
	numericCitation = regexp.MustCompile(`\[\d+(?:\s*[,\-–]\s*\d+)*\]`)
	urlPattern      = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+`)
	doiPattern      = regexp.MustCompile(`(?i)\bdoi:\s*\S+|\b10\.\d{4,9}/\S+`)
	etAlPattern     = regexp.MustCompile(`\bet al\.`)
	spaceBeforeStop = regexp.MustCompile(`\s+([.,;:!?])`)
)

// Preprocess strips academic artifacts that hurt summaries: figure and table
// caption lines, bracketed numeric citations, URLs and DOIs. "et al." becomes
// "and colleagues" and whitespace is collapsed.
func Preprocess(text string) string {
	text = captionLine.ReplaceAllString(text, "")
	text = numericCitation.ReplaceAllString(text, "")
	text = urlPattern.ReplaceAllString(text, "")
	text = doiPattern.ReplaceAllString(text, "")
	text = etAlPattern.ReplaceAllString(text, "and colleagues")
	text = normalizeWhitespace(text)
	return spaceBeforeStop.ReplaceAllString(text, "$1")
}
