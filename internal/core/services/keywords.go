package services

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
)

// keywordBrands are matched as substrings of the lower-cased name.
var keywordBrands = []string{"apple", "samsung", "sony", "bose", "dell", "hp", "lenovo", "microsoft", "jbl"}

// keywordTypes are product-type words matched as substrings.
var keywordTypes = []string{
	"macbook", "iphone", "ipad", "airpods", "surface", "xps", "thinkpad", "headphones", "earbuds", "speaker",
}

// keywordPatterns pull model identifiers out of a lower-cased name.
var keywordPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(m[1-4](?:\s+(?:pro|max|ultra))?)`), // chip generation
	regexp.MustCompile(`(\d+(?:\.\d+)?["\-]?(?:inch)?)`),    // screen size and model numbers
	regexp.MustCompile(`(pro|air|max|mini|plus)`),           // variants
	regexp.MustCompile(`(\d+gb|\d+tb)`),                     // storage
}

// ExtractKeywords returns the identifying tokens of a product name in
// extraction order. Duplicates are kept.
func ExtractKeywords(name string) []string {
	lower := strings.ToLower(name)
	var keywords []string

	for _, brand := range keywordBrands {
		if strings.Contains(lower, brand) {
			keywords = append(keywords, brand)
		}
	}
	for _, t := range keywordTypes {
		if strings.Contains(lower, t) {
			keywords = append(keywords, t)
		}
	}
	for _, re := range keywordPatterns {
		for _, m := range re.FindAllStringSubmatch(lower, -1) {
			if k := strings.TrimSpace(m[1]); k != "" {
				keywords = append(keywords, k)
			}
		}
	}
	return keywords
}

// knownBrands is the brand vocabulary, in display case.
var knownBrands = []string{
	"Apple", "Samsung", "Sony", "Bose", "Dell", "HP", "Lenovo",
	"ASUS", "Acer", "Microsoft", "Google", "Amazon", "JBL", "Beats",
}

// InferBrand returns the first word of name that is a known brand,
// falling back to the first word, or "Unknown" for an empty name.
func InferBrand(name string) string {
	words := strings.Fields(name)
	for _, w := range words {
		for _, brand := range knownBrands {
			if strings.EqualFold(w, brand) {
				return brand
			}
		}
	}
	if len(words) == 0 {
		return "Unknown"
	}
	return words[0]
}

type categoryKeywords struct {
	category string
	keywords []string
}

// categoryRules are checked in order; the first hit wins.
var categoryRules = []categoryKeywords{
	{domain.CategoryLaptops, []string{"laptop", "macbook", "notebook", "ultrabook", "chromebook"}},
	{domain.CategoryHeadphones, []string{
		"headphone", "earphone", "earbud", "airpods", "headset", "buds", "wh-1000", "wh1000", "quietcomfort",
	}},
	{domain.CategorySpeakers, []string{"speaker", "soundbar", "soundlink", "jbl charge", "jbl flip"}},
}

// InferCategory returns the category slug whose keywords appear in name,
// or "" when none do.
func InferCategory(name string) string {
	lower := strings.ToLower(name)
	for _, rule := range categoryRules {
		for _, k := range rule.keywords {
			if strings.Contains(lower, k) {
				return rule.category
			}
		}
	}
	return ""
}
