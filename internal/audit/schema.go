package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/webaudit/webaudit/internal/fetch"
	"github.com/webaudit/webaudit/internal/model"
)

// rdfaAttributes are the attributes that mark an element as carrying
// RDFa annotations.
var rdfaAttributes = []string{
	"typeof", "about", "property", "resource", "vocab",
	"prefix", "content", "datatype", "rel", "rev",
}

// SchemaAuditor extracts structured data from pages.
type SchemaAuditor struct {
	client *fetch.Client
}

// NewSchemaAuditor creates a SchemaAuditor using the given client.
func NewSchemaAuditor(client *fetch.Client) *SchemaAuditor {
	return &SchemaAuditor{client: client}
}

// Check fetches a page and extracts JSON-LD, microdata, and RDFa.
func (a *SchemaAuditor) Check(ctx context.Context, rawURL string) *model.SchemaResult {
	result := &model.SchemaResult{
		URL:        rawURL,
		JSONLD:     []model.JSONLDBlock{},
		Microdata:  []model.MicrodataItem{},
		RDFa:       []model.RDFaItem{},
		TypeCounts: map[string]int{},
	}

	resp, err := a.client.Get(ctx, rawURL)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	doc, err := html.Parse(bytes.NewReader(resp.Body))
	if err != nil {
		result.Error = fmt.Sprintf("parse failed: %v", err)
		return result
	}

	extractJSONLD(doc, result)
	extractMicrodata(doc, result)
	extractRDFa(doc, result)

	collectSchemaTypes(result)
	result.Recommendations = schemaRecommendations(result)
	return result
}

// extractJSONLD collects and parses ld+json script blocks.
func extractJSONLD(doc *html.Node, result *model.SchemaResult) {
	walkNodes(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "script" {
			return true
		}
		if !strings.EqualFold(attrValue(n, "type"), "application/ld+json") {
			return true
		}
		raw := ""
		if n.FirstChild != nil {
			raw = n.FirstChild.Data
		}

		block := model.JSONLDBlock{}
		var data any
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			block.Raw = raw
			block.ParseError = err.Error()
			result.ParseErrors++
		} else {
			block.Data = data
		}
		result.JSONLD = append(result.JSONLD, block)
		return true
	})
}

// extractMicrodata collects itemscope elements with their properties.
// The property value source depends on the element: meta uses content,
// media elements use src, links use href, time uses datetime, and
// everything else uses its text content. Repeated properties become
// string slices.
func extractMicrodata(doc *html.Node, result *model.SchemaResult) {
	walkNodes(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		if _, ok := lookupNodeAttr(n, "itemscope"); !ok {
			return true
		}

		item := model.MicrodataItem{
			Type:       attrValue(n, "itemtype"),
			ID:         attrValue(n, "itemid"),
			Properties: map[string]any{},
		}
		collectItemProps(n, &item, true)
		result.Microdata = append(result.Microdata, item)
		// Continue into children so nested itemscopes get their own item.
		return true
	})
}

// collectItemProps gathers itemprop values within one itemscope,
// stopping at nested scopes.
func collectItemProps(n *html.Node, item *model.MicrodataItem, root bool) {
	if !root {
		if _, nested := lookupNodeAttr(n, "itemscope"); nested {
			return
		}
	}
	if !root && n.Type == html.ElementNode {
		if prop := attrValue(n, "itemprop"); prop != "" {
			value := microdataValue(n)
			switch existing := item.Properties[prop].(type) {
			case nil:
				item.Properties[prop] = value
			case string:
				item.Properties[prop] = []string{existing, value}
			case []string:
				item.Properties[prop] = append(existing, value)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectItemProps(c, item, false)
	}
}

// microdataValue extracts the value of an itemprop element.
func microdataValue(n *html.Node) string {
	switch n.Data {
	case "meta":
		return attrValue(n, "content")
	case "img", "audio", "video", "source", "embed", "iframe":
		return attrValue(n, "src")
	case "a", "link", "area":
		return attrValue(n, "href")
	case "time":
		if dt := attrValue(n, "datetime"); dt != "" {
			return dt
		}
		return strings.TrimSpace(textOf(n))
	default:
		return strings.TrimSpace(textOf(n))
	}
}

// extractRDFa collects elements carrying RDFa attributes.
func extractRDFa(doc *html.Node, result *model.SchemaResult) {
	seen := make(map[string]struct{})
	walkNodes(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		attrs := map[string]string{}
		for _, name := range rdfaAttributes {
			if value, ok := lookupNodeAttr(n, name); ok && value != "" {
				attrs[name] = value
			}
		}
		// property alone also appears in OpenGraph meta tags; require a
		// typing attribute or an explicit vocabulary to call it RDFa.
		if attrs["typeof"] == "" && attrs["vocab"] == "" && attrs["about"] == "" {
			return true
		}

		key := fmt.Sprintf("%v", attrs)
		if _, dup := seen[key]; dup {
			return true
		}
		seen[key] = struct{}{}
		result.RDFa = append(result.RDFa, model.RDFaItem{Attributes: attrs})
		return true
	})
}

// collectSchemaTypes aggregates the type names found in all formats.
func collectSchemaTypes(result *model.SchemaResult) {
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		// Strip vocabulary prefixes like https://schema.org/.
		if idx := strings.LastIndexAny(name, "/#"); idx >= 0 && idx < len(name)-1 {
			name = name[idx+1:]
		}
		result.TypeCounts[name]++
	}

	var fromJSON func(data any)
	fromJSON = func(data any) {
		switch v := data.(type) {
		case map[string]any:
			switch typed := v["@type"].(type) {
			case string:
				add(typed)
			case []any:
				for _, t := range typed {
					if s, ok := t.(string); ok {
						add(s)
					}
				}
			}
			if graph, ok := v["@graph"].([]any); ok {
				for _, entry := range graph {
					fromJSON(entry)
				}
			}
		case []any:
			for _, entry := range v {
				fromJSON(entry)
			}
		}
	}
	for _, block := range result.JSONLD {
		if block.Data != nil {
			fromJSON(block.Data)
		}
	}
	for _, item := range result.Microdata {
		add(item.Type)
	}
	for _, item := range result.RDFa {
		add(item.Attributes["typeof"])
	}

	result.SchemaTypes = make([]string, 0, len(result.TypeCounts))
	for name := range result.TypeCounts {
		result.SchemaTypes = append(result.SchemaTypes, name)
	}
	sort.Strings(result.SchemaTypes)
}

// schemaRecommendations derives advice from the extraction outcome.
func schemaRecommendations(result *model.SchemaResult) []string {
	recs := make([]string, 0)

	total := len(result.JSONLD) + len(result.Microdata) + len(result.RDFa)
	if total == 0 {
		recs = append(recs, "No structured data found. Add JSON-LD markup for rich search results.")
		return recs
	}
	if len(result.JSONLD) == 0 {
		recs = append(recs, "Add JSON-LD structured data; it is Google's preferred format.")
	}
	if result.ParseErrors > 0 {
		recs = append(recs, fmt.Sprintf("Fix %d JSON-LD blocks that fail to parse.", result.ParseErrors))
	}
	if len(result.SchemaTypes) > 10 {
		recs = append(recs, "Over 10 schema types on one page; verify they are all intentional.")
	}
	if len(recs) == 0 {
		recs = append(recs, "Structured data looks well formed.")
	}
	return recs
}

// walkNodes visits every node depth-first. The callback returns false
// to skip a node's children.
func walkNodes(n *html.Node, visit func(*html.Node) bool) {
	if !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkNodes(c, visit)
	}
}

// textOf returns the concatenated text of a subtree.
func textOf(n *html.Node) string {
	var sb strings.Builder
	walkNodes(n, func(node *html.Node) bool {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		return true
	})
	return sb.String()
}

// attrValue returns an attribute value, or "".
func attrValue(n *html.Node, key string) string {
	value, _ := lookupNodeAttr(n, key)
	return value
}

// lookupNodeAttr returns an attribute value and presence.
func lookupNodeAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}
