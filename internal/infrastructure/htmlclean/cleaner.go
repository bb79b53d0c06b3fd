package htmlclean

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"browsertools/internal/application/port/output"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const TruncationNotice = "\n<!-- HTML truncated -->"

type CleanConfig struct {
	TagsToRemove     []string
	AttrsToRemove    []string
	AttrPrefixes     []string
	MaxOutputSize    int
	CustomAttrFilter func(attr html.Attribute) bool
}

// DefaultCleanConfig keeps document structure and the attributes an agent
// navigates by (id, class, href, src, name, type, value, role).
var DefaultCleanConfig = CleanConfig{
	TagsToRemove: []string{
		"script", "style", "noscript", "svg", "iframe",
		"link", "meta", "head", "title", "template",
	},
	AttrsToRemove: []string{
		"style", "srcset", "sizes", "loading", "decoding", "fetchpriority", "tabindex",
	},
	AttrPrefixes: []string{"data-", "aria-", "on"},
}

var _ output.HTMLNormalizer = (*Cleaner)(nil)

type Cleaner struct {
	cfg CleanConfig
}

func New(cfg *CleanConfig) *Cleaner {
	if cfg == nil {
		cfg = &DefaultCleanConfig
	}
	return &Cleaner{cfg: *cfg}
}

func (c *Cleaner) Clean(rawHTML string) string {
	return CleanHTML(rawHTML, &c.cfg)
}

// CleanFile normalizes the HTML document stored at path in place.
func (c *Cleaner) CleanFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(c.Clean(string(raw))), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// maxCleanPasses bounds re-cleaning of the rendered body. Misnested markup
// (an <a> inside a table inside an <a>) is restructured again on every
// reparse until the tree settles.
const maxCleanPasses = 3

// CleanHTML strips scripts, styles, comments and noisy attributes and returns
// the rendered <body>. It never fails: markup it cannot handle is returned
// unchanged. Cleaning its output again yields the same string.
func CleanHTML(rawHTML string, cfg *CleanConfig) string {
	if cfg == nil {
		cfg = &DefaultCleanConfig
	}

	result, ok := cleanOnce(rawHTML, cfg)
	if !ok {
		return rawHTML
	}
	for i := 0; i < maxCleanPasses; i++ {
		next, ok := cleanOnce(result, cfg)
		if !ok || next == result {
			break
		}
		result = next
	}
	return truncateHTML(result, cfg.MaxOutputSize)
}

// cleanOnce parses, cleans and renders the body a single time.
func cleanOnce(rawHTML string, cfg *CleanConfig) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", false
	}

	body := doc.Find("body").First()
	if body.Length() == 0 {
		return "", false
	}

	if len(cfg.TagsToRemove) > 0 {
		body.Find(strings.Join(cfg.TagsToRemove, ", ")).Remove()
	}
	cleanNode(body.Get(0), cfg)

	result, err := goquery.OuterHtml(body)
	if err != nil {
		return "", false
	}
	return result, true
}

// cleanNode drops comments and filters attributes below n.
func cleanNode(n *html.Node, cfg *CleanConfig) {
	if n.Type == html.ElementNode {
		n.Attr = filterAttributes(n.Attr, cfg)
	}

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.CommentNode {
			n.RemoveChild(c)
		} else {
			cleanNode(c, cfg)
		}
		c = next
	}
}

func filterAttributes(attrs []html.Attribute, cfg *CleanConfig) []html.Attribute {
	var kept []html.Attribute
	for _, attr := range attrs {
		if shouldRemoveAttr(attr, cfg) {
			continue
		}
		kept = append(kept, attr)
	}
	return kept
}

func shouldRemoveAttr(attr html.Attribute, cfg *CleanConfig) bool {
	key := strings.ToLower(attr.Key)
	for _, r := range cfg.AttrsToRemove {
		if key == r {
			return true
		}
	}
	for _, p := range cfg.AttrPrefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	if cfg.CustomAttrFilter != nil && cfg.CustomAttrFilter(attr) {
		return true
	}
	return false
}

func truncateHTML(htmlStr string, maxSize int) string {
	if maxSize > 0 && len(htmlStr) > maxSize {
		cut := maxSize
		for cut > 0 && !utf8.RuneStart(htmlStr[cut]) {
			cut--
		}
		return htmlStr[:cut] + TruncationNotice
	}
	return htmlStr
}
