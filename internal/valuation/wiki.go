package valuation

import (
	"regexp"
	"strings"
)

// Card reward and flavour text arrive as wiki markup: colour templates like
// {{c|currency|Mirror of Kalandra}}, item links like [[Atziri, Queen of the
// Vaal|Atziri]], and <br> line breaks. CleanWikiMarkup renders that to the
// plain HTML the UI expects.
var (
	wikiColourTemplate = regexp.MustCompile(`\{\{[Cc]\|([^|{}]+)\|([^{}]*)\}\}`)
	wikiPipedTemplate  = regexp.MustCompile(`\{\{[^|{}]*\|([^{}]*)\}\}`)
	wikiBareTemplate   = regexp.MustCompile(`\{\{([^{}]*)\}\}`)
	wikiPipedLink      = regexp.MustCompile(`\[\[[^\[\]|]*\|([^\[\]]*)\]\]`)
	wikiBareLink       = regexp.MustCompile(`\[\[([^\[\]]*)\]\]`)
)

func CleanWikiMarkup(text string) string {
	if text == "" {
		return ""
	}
	out := wikiColourTemplate.ReplaceAllString(text, `<span class="$1">$2</span>`)
	out = wikiPipedTemplate.ReplaceAllString(out, "$1")
	out = wikiBareTemplate.ReplaceAllString(out, "$1")
	out = wikiPipedLink.ReplaceAllString(out, "$1")
	out = wikiBareLink.ReplaceAllString(out, "$1")
	out = strings.ReplaceAll(out, "<br />", "<br>")
	out = strings.ReplaceAll(out, "<br/>", "<br>")
	return strings.TrimSpace(out)
}
