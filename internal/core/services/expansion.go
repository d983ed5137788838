package services

import (
	"regexp"
	"strings"
)

// Query expansion is rule-based: a small set of topic clusters known to
// matter for personal-assistant queries, each pairing a trigger pattern
// with fixed related phrasings. Cheap and deterministic, unlike LLM
// expansion, and recall for these topics is what the corpus needs most.
var expansionClusters = []struct {
	pattern  *regexp.Regexp
	variants []string
}{
	{
		pattern: regexp.MustCompile(`\b(work\s*ex|work experience|job history|employment history|career|resume)\b`),
		variants: []string{
			"work experience",
			"employment history",
			"career history",
			"job roles",
			"past companies",
			"professional experience",
		},
	},
	{
		pattern: regexp.MustCompile(`\b(pet peeve|annoyances?|irritations?|things that bother (?:me|you))\b`),
		variants: []string{
			"pet peeves",
			"biggest annoyance",
			"things I dislike",
			"things that bother me",
			"what irritates me",
		},
	},
	{
		pattern: regexp.MustCompile(`\b(preferences?|likes?|dislikes?|bio|about (?:me|you))\b`),
		variants: []string{
			"personal preferences",
			"likes and dislikes",
			"about me",
			"biography",
		},
	},
}

// ExpandQuery returns the query plus semantically-related variants for
// recognised topic clusters. The original query is always first and the
// cluster order is fixed, so output order is deterministic for a given
// query. Unrecognised queries return just the original; blank queries
// return nil.
func ExpandQuery(query string) []string {
	base := strings.TrimSpace(query)
	if base == "" {
		return nil
	}

	lower := strings.ToLower(base)
	variants := []string{base}
	seen := map[string]bool{lower: true}

	for _, cluster := range expansionClusters {
		if !cluster.pattern.MatchString(lower) {
			continue
		}
		for _, v := range cluster.variants {
			key := strings.ToLower(v)
			if seen[key] {
				continue
			}
			seen[key] = true
			variants = append(variants, v)
		}
	}

	return variants
}
