package document

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Tag attribute names, in render order.
const (
	AttrID          = "id"
	AttrTitle       = "title"
	AttrPageID      = "page_id"
	AttrDocCategory = "doc_category"
	AttrCommodity   = "commodity"
	AttrState       = "state"
	AttrCounty      = "county"
	AttrS3Key       = "s3_key"
	AttrURL         = "url"
)

var attrOrder = []string{
	AttrID, AttrTitle, AttrPageID, AttrDocCategory, AttrCommodity,
	AttrState, AttrCounty, AttrS3Key, AttrURL,
}

const (
	openTag  = "<doc"
	closeTag = "</doc>"
)

// Document is a retrieved passage rendered for downstream consumption.
// DisplayIndex is 1-based and assigned after deduplication.
type Document struct {
	DisplayIndex int    `json:"id"`
	Title        string `json:"title"`
	PageID       string `json:"page_id"`
	DocCategory  string `json:"doc_category"`
	Commodity    string `json:"commodity"`
	State        string `json:"state"`
	County       string `json:"county"`
	S3Key        string `json:"s3_key"`
	URL          string `json:"url"`
	Content      string `json:"content"`
}

// Page returns the page reference as an integer, reading its leading digits.
func (d Document) Page() (int, bool) {
	end := strings.IndexFunc(d.PageID, func(r rune) bool { return !unicode.IsDigit(r) })
	digits := d.PageID
	if end >= 0 {
		digits = d.PageID[:end]
	}
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Render produces the self-describing tagged form:
// <doc id='1' title='…' … url='…'>content</doc>
func (d Document) Render() string {
	var b strings.Builder
	b.WriteString(openTag)
	for _, name := range attrOrder {
		fmt.Fprintf(&b, " %s='%s'", name, d.attr(name))
	}
	b.WriteByte('>')
	b.WriteString(d.Content)
	b.WriteString(closeTag)
	return b.String()
}

func (d Document) attr(name string) string {
	switch name {
	case AttrID:
		return strconv.Itoa(d.DisplayIndex)
	case AttrTitle:
		return d.Title
	case AttrPageID:
		return d.PageID
	case AttrDocCategory:
		return d.DocCategory
	case AttrCommodity:
		return d.Commodity
	case AttrState:
		return d.State
	case AttrCounty:
		return d.County
	case AttrS3Key:
		return d.S3Key
	case AttrURL:
		return d.URL
	}
	return ""
}

func (d *Document) setAttr(name, value string) error {
	switch name {
	case AttrID:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid id %q", value)
		}
		d.DisplayIndex = n
	case AttrTitle:
		d.Title = value
	case AttrPageID:
		d.PageID = value
	case AttrDocCategory:
		d.DocCategory = value
	case AttrCommodity:
		d.Commodity = value
	case AttrState:
		d.State = value
	case AttrCounty:
		d.County = value
	case AttrS3Key:
		d.S3Key = value
	case AttrURL:
		d.URL = value
	}
	return nil
}

// Parse reads a tagged document produced by Render.
// Attribute values may contain single quotes; a value ends at the quote that is
// followed by the next attribute or by the end of the opening tag.
func Parse(s string) (Document, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, openTag) {
		return Document{}, fmt.Errorf("missing %s prefix", openTag)
	}
	if !strings.HasSuffix(s, closeTag) {
		return Document{}, fmt.Errorf("missing %s suffix", closeTag)
	}
	body := s[len(openTag) : len(s)-len(closeTag)]

	var d Document
	seen := make(map[string]bool, len(attrOrder))
	for {
		trimmed := strings.TrimLeft(body, " ")
		if strings.HasPrefix(trimmed, ">") {
			d.Content = trimmed[1:]
			break
		}
		name, rest, ok := strings.Cut(trimmed, "='")
		if !ok || name == "" || strings.ContainsAny(name, " >") {
			return Document{}, fmt.Errorf("malformed attribute near %q", head(trimmed))
		}
		end := valueEnd(rest)
		if end < 0 {
			return Document{}, fmt.Errorf("unterminated value for attribute %q", name)
		}
		if err := d.setAttr(name, rest[:end]); err != nil {
			return Document{}, err
		}
		seen[name] = true
		body = rest[end+1:]
	}

	if !seen[AttrS3Key] {
		return Document{}, fmt.Errorf("attribute %q is required", AttrS3Key)
	}
	return d, nil
}

// valueEnd returns the index of the quote closing an attribute value.
func valueEnd(rest string) int {
	offset := 0
	for {
		i := strings.IndexByte(rest[offset:], '\'')
		if i < 0 {
			return -1
		}
		pos := offset + i
		after := rest[pos+1:]
		if strings.HasPrefix(after, ">") || startsWithAttr(after) {
			return pos
		}
		offset = pos + 1
	}
}

func startsWithAttr(s string) bool {
	if !strings.HasPrefix(s, " ") {
		return false
	}
	s = s[1:]
	for _, name := range attrOrder {
		if strings.HasPrefix(s, name+"='") {
			return true
		}
	}
	return false
}

func head(s string) string {
	if len(s) > 24 {
		return s[:24]
	}
	return s
}
