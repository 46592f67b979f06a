package domain

import "strings"

// ImageResolver picks a fallback image for a product from its title.
type ImageResolver func(title string) string

// ImageRule maps title keywords to an image reference.
type ImageRule struct {
	Keywords []string
	Image    string
}

// DefaultImageRules are the bundled product pictures, checked in order.
var DefaultImageRules = []ImageRule{
	{Keywords: []string{"квас"}, Image: "images/shoro.png"},
	{Keywords: []string{"тан"}, Image: "images/shoro1.png"},
	{Keywords: []string{"вода", "легенда"}, Image: "images/shoro2.png"},
	{Keywords: []string{"стакан"}, Image: "images/shoro1.png"},
}

// DefaultImage is used when no rule matches.
const DefaultImage = "images/shoro.png"

// KeywordImageResolver returns the image of the first rule with a keyword
// contained in the lowercased title, or fallback.
func KeywordImageResolver(rules []ImageRule, fallback string) ImageResolver {
	return func(title string) string {
		t := strings.ToLower(title)
		for _, rule := range rules {
			for _, k := range rule.Keywords {
				if strings.Contains(t, k) {
					return rule.Image
				}
			}
		}
		return fallback
	}
}

// DefaultImageResolver resolves titles with DefaultImageRules.
var DefaultImageResolver = KeywordImageResolver(DefaultImageRules, DefaultImage)
