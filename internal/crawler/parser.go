package crawler

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/webaudit/webaudit/internal/model"
)

// Form control element names checked by the accessibility audit.
const (
	htmlElementInput    = "input"
	htmlElementSelect   = "select"
	htmlElementTextarea = "textarea"
	htmlElementButton   = "button"
)

// Parser extracts information from HTML content.
//
// Design decision: We use golang.org/x/net/html for parsing rather than
// regex because:
//  1. It correctly handles malformed HTML common on the web
//  2. Provides a proper DOM-like structure
//  3. More maintainable than complex regex patterns
//  4. Standard library extension, well-maintained
type Parser struct {
	// baseURL is the URL of the page being parsed, used for resolving relative URLs.
	baseURL *url.URL
}

// Heading is one h1-h6 element.
type Heading struct {
	// Level is 1 through 6.
	Level int

	// Text is the trimmed heading text. Empty headings are kept because
	// the accessibility audit flags them.
	Text string
}

// Image is one img element with its alternative text.
type Image struct {
	// Source is the resolved image URL.
	Source string

	// Alt is the alt attribute value.
	Alt string

	// HasAlt distinguishes alt="" (decorative) from a missing attribute.
	HasAlt bool
}

// Anchor is one a element with the page context the link audits need.
type Anchor struct {
	// RawHref is the href attribute exactly as written.
	RawHref string

	// Href is the resolved absolute URL, empty for skipped schemes.
	Href string

	// Text is the trimmed anchor text.
	Text string

	// ParentTag is the element directly containing the anchor.
	ParentTag string

	// InNav is true when an ancestor is a nav element or carries a
	// nav-like class.
	InNav bool

	// InFooter is true when an ancestor is a footer element.
	InFooter bool

	// InBreadcrumb is true when an ancestor carries a breadcrumb class
	// or aria-label.
	InBreadcrumb bool
}

// FormControl is one interactive control checked for labeling.
type FormControl struct {
	Tag            string
	Type           string
	ID             string
	Name           string
	AriaLabel      string
	AriaLabelledBy string
	Title          string
}

// StyledElement is a text-bearing element with an inline style attribute.
// Collected for the static contrast check.
type StyledElement struct {
	Tag   string
	Style string
	Text  string
}

// ParseResult contains all information extracted from an HTML page.
//
// Design decision: We return a comprehensive result struct rather than
// multiple methods because:
//  1. Single parsing pass is more efficient
//  2. Related data can be collected together
//  3. Caller can choose what to use
type ParseResult struct {
	// Title is the page title from the title tag.
	Title string

	// Links contains unique resolved anchor targets in document order.
	Links []string

	// Anchors contains every anchor with context, duplicates included.
	Anchors []Anchor

	// Resources contains categorized static resources.
	Resources model.PageResources

	// MetaTags maps meta name/property to content.
	MetaTags map[string]string

	// Canonical is the href of link rel="canonical", if present.
	Canonical string

	// HasCharset is true when a charset declaration was found.
	HasCharset bool

	// TextContent is the visible text of the page, untruncated.
	// Script, style, and noscript content is excluded.
	TextContent string

	// Headings lists h1-h6 elements in document order.
	Headings []Heading

	// Images lists img elements with their alt text.
	Images []Image

	// Controls lists interactive form controls.
	Controls []FormControl

	// LabelFor lists the for attributes of label elements.
	LabelFor []string

	// Styled lists text elements with inline styles, for contrast checks.
	Styled []StyledElement

	// JSONLD contains the raw contents of ld+json script blocks.
	JSONLD []string
}

// NewParser creates a new HTML parser with the given base URL.
// The base URL is used to resolve relative links.
func NewParser(baseURL string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: u}, nil
}

// ancestorState tracks the containers the walk is currently inside.
type ancestorState struct {
	parentTag    string
	inNav        bool
	inFooter     bool
	inBreadcrumb bool
	skipText     bool
}

// Parse parses HTML content and extracts all relevant information.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{
		Links:    make([]string, 0),
		MetaTags: make(map[string]string),
	}

	seenLinks := make(map[string]struct{})
	var text strings.Builder

	var walk func(n *html.Node, state ancestorState)
	walk = func(n *html.Node, state ancestorState) {
		childState := state
		switch n.Type {
		case html.ElementNode:
			childState = p.processElement(n, state, result)
		case html.TextNode:
			if !state.skipText {
				if trimmed := strings.TrimSpace(n.Data); trimmed != "" {
					text.WriteString(trimmed)
					text.WriteString(" ")
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, childState)
		}
	}
	walk(doc, ancestorState{})

	result.TextContent = strings.TrimSpace(text.String())

	// Build the unique link list from the anchors, preserving order.
	for _, anchor := range result.Anchors {
		if anchor.Href == "" {
			continue
		}
		if _, ok := seenLinks[anchor.Href]; ok {
			continue
		}
		seenLinks[anchor.Href] = struct{}{}
		result.Links = append(result.Links, anchor.Href)
	}

	return result, nil
}

// processElement handles one element node and returns the state its
// children inherit.
func (p *Parser) processElement(n *html.Node, state ancestorState, result *ParseResult) ancestorState {
	child := state
	child.parentTag = n.Data

	classes := strings.ToLower(getAttr(n, "class"))
	switch n.Data {
	case "nav":
		child.inNav = true
	case "footer":
		child.inFooter = true
	case "script", "style", "noscript":
		child.skipText = true
	}
	if strings.Contains(classes, "nav") || strings.Contains(classes, "menu") {
		child.inNav = true
	}
	if strings.Contains(classes, "breadcrumb") ||
		strings.Contains(strings.ToLower(getAttr(n, "aria-label")), "breadcrumb") {
		child.inBreadcrumb = true
	}

	switch n.Data {
	case "title":
		if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
			result.Title = strings.TrimSpace(n.FirstChild.Data)
		}

	case "a":
		raw := strings.TrimSpace(getAttr(n, "href"))
		result.Anchors = append(result.Anchors, Anchor{
			RawHref:      raw,
			Href:         p.resolveURL(raw),
			Text:         strings.TrimSpace(nodeText(n)),
			ParentTag:    state.parentTag,
			InNav:        child.inNav,
			InFooter:     child.inFooter,
			InBreadcrumb: child.inBreadcrumb,
		})

	case "h1", "h2", "h3", "h4", "h5", "h6":
		result.Headings = append(result.Headings, Heading{
			Level: int(n.Data[1] - '0'),
			Text:  strings.TrimSpace(nodeText(n)),
		})

	case "img":
		if src := getAttr(n, "src"); src != "" {
			resolved := p.resolveURL(src)
			if resolved == "" {
				resolved = src // keep data: URLs for the metadata audit
			}
			alt, hasAlt := lookupAttr(n, "alt")
			result.Images = append(result.Images, Image{Source: resolved, Alt: alt, HasAlt: hasAlt})
			result.Resources.Images = append(result.Resources.Images, resolved)
		}

	case "script":
		if src := getAttr(n, "src"); src != "" {
			result.Resources.JS = append(result.Resources.JS, p.resolveURL(src))
		} else if strings.EqualFold(getAttr(n, "type"), "application/ld+json") {
			if n.FirstChild != nil {
				result.JSONLD = append(result.JSONLD, n.FirstChild.Data)
			}
		}

	case "link":
		href := getAttr(n, "href")
		rel := strings.ToLower(getAttr(n, "rel"))
		switch {
		case href != "" && rel == "stylesheet":
			result.Resources.CSS = append(result.Resources.CSS, p.resolveURL(href))
		case href != "" && rel == "canonical":
			result.Canonical = p.resolveURL(href)
		}

	case "video", "audio", "source", "embed":
		if src := getAttr(n, "src"); src != "" {
			result.Resources.Media = append(result.Resources.Media, p.resolveURL(src))
		}

	case "meta":
		if _, ok := lookupAttr(n, "charset"); ok {
			result.HasCharset = true
		}
		if strings.EqualFold(getAttr(n, "http-equiv"), "content-type") {
			result.HasCharset = true
		}
		name := getAttr(n, "name")
		if name == "" {
			name = getAttr(n, "property") // OpenGraph uses property
		}
		if content := getAttr(n, "content"); name != "" && content != "" {
			result.MetaTags[strings.ToLower(name)] = content
		}

	case "label":
		if forAttr := getAttr(n, "for"); forAttr != "" {
			result.LabelFor = append(result.LabelFor, forAttr)
		}

	case htmlElementInput, htmlElementSelect, htmlElementTextarea, htmlElementButton:
		result.Controls = append(result.Controls, FormControl{
			Tag:            n.Data,
			Type:           strings.ToLower(getAttr(n, "type")),
			ID:             getAttr(n, "id"),
			Name:           getAttr(n, "name"),
			AriaLabel:      getAttr(n, "aria-label"),
			AriaLabelledBy: getAttr(n, "aria-labelledby"),
			Title:          getAttr(n, "title"),
		})
	}

	if style := getAttr(n, "style"); style != "" {
		if text := strings.TrimSpace(nodeText(n)); text != "" {
			result.Styled = append(result.Styled, StyledElement{
				Tag:   n.Data,
				Style: style,
				Text:  text,
			})
		}
	}

	return child
}

// resolveURL resolves a relative URL against the base URL.
//
// Design decision: We resolve URLs rather than storing them as-is because:
//  1. Makes deduplication easier
//  2. Allows proper link classification
//  3. Reduces ambiguity in results
func (p *Parser) resolveURL(href string) string {
	if href == "" {
		return ""
	}

	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "data:") ||
		href == "#" {
		return ""
	}
	// mailto: and tel: resolve to themselves so the link auditor can
	// categorize them.
	if strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") {
		return href
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	return p.baseURL.ResolveReference(u).String()
}

// nodeText returns the concatenated text content of a node's subtree.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	value, _ := lookupAttr(n, key)
	return value
}

// lookupAttr retrieves an attribute value and whether it was present.
func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}
