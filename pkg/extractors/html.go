// Package extractors provides data extraction from decoded responses.
// This file inspects HTML fragments (rendered notification emails) using
// goquery.
package extractors

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLText parses an HTML fragment and returns its visible text together
// with every class and id attribute value, lower-cased, one per line.
func HTMLText(htmlContent string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(doc.Text())
	doc.Find("[class], [id]").Each(func(_ int, s *goquery.Selection) {
		for _, attr := range []string{"class", "id"} {
			if val, exists := s.Attr(attr); exists {
				sb.WriteString("\n")
				sb.WriteString(val)
			}
		}
	})
	return strings.ToLower(sb.String()), nil
}

// FindIndicators returns the needles present in the HTML fragment, matched
// case-insensitively against its text, its class/id attributes and the raw
// markup (other attributes, comments).
func FindIndicators(htmlContent string, needles []string) ([]string, error) {
	text, err := HTMLText(htmlContent)
	if err != nil {
		return nil, err
	}
	text += "\n" + strings.ToLower(htmlContent)

	var found []string
	for _, n := range needles {
		if n != "" && strings.Contains(text, strings.ToLower(n)) {
			found = append(found, n)
		}
	}
	return found, nil
}
