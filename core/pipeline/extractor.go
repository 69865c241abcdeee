package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/radarhk/radar/helper"
	"github.com/radarhk/radar/resolver"
)

// Place name after a pin emoji, stopped before descriptive words, mentions,
// hashtags, CJK text, or a newline. Covers Latin letters including extended
// ranges, digits, and common venue punctuation.
var pinPattern = regexp.MustCompile(`📍\s*([a-zA-Z0-9\x{00C0}-\x{024F}\x{1E00}-\x{1EFF}\s,.\-&']+?)(?:\s+(?:captured|at|in|with|for|and|the|is|was|has|had|have|their|this|that|my|our|your)\b|\s+[@#]|\s+[\x{4e00}-\x{9fff}]|\n|$)`)

var trailingPunct = regexp.MustCompile(`[\s,;:.!?-]+$`)

var hashtagPattern = regexp.MustCompile(`#(\w+)`)

// localities recognized as hints when mentioned in a caption
var localities = []string{
	"Central", "Sheung Wan", "Wan Chai", "Causeway Bay", "Admiralty",
	"Tsim Sha Tsui", "TST", "Mong Kok", "Jordan", "Yau Ma Tei",
	"Sai Kung", "Stanley", "Repulse Bay", "Aberdeen", "Kennedy Town",
	"Sham Shui Po", "Kwun Tong", "Tai Hang", "Tin Hau", "Fortress Hill",
	"North Point", "Quarry Bay", "Tai Koo", "Shau Kei Wan",
	"Hung Hom", "To Kwa Wan", "Kowloon City", "Diamond Hill",
	"Wong Tai Sin", "Kowloon Tong", "Prince Edward",
}

var tagKeywords = []string{
	"brunch", "lunch", "dinner", "breakfast",
	"coffee", "cafe", "bar", "cocktail",
	"aesthetic", "minimal", "cozy", "vibes",
	"instagrammable", "photogenic", "hidden gem",
}

// DefaultNER creates a named entity recognizer using the distilbert-NER model.
// Detects PER, ORG, LOC and MISC entities with simple span aggregation.
func DefaultNER() (NERFunc, error) {
	modelName := "KnightsAnalytics/distilbert-NER"
	modelPath, err := helper.PrepareModel(modelName, "model.onnx")
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.TokenClassificationConfig{
		ModelPath: modelPath,
		Name:      "ner-pipeline",
		Options: []hugot.TokenClassificationOption{
			pipelines.WithSimpleAggregation(),
			pipelines.WithIgnoreLabels([]string{"O"}),
		},
	}
	nerPipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create NER pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create NER pipeline: %w", err)
	}

	return func(text string) ([]NamedEntity, error) {
		result, err := nerPipeline.RunPipeline([]string{text})
		if err != nil {
			return nil, fmt.Errorf("failed to run NER: %w", err)
		}

		if len(result.Entities) == 0 {
			return nil, nil
		}

		var entities []NamedEntity
		for _, entity := range result.Entities[0] {
			entities = append(entities, NamedEntity{
				Word:  strings.TrimSpace(entity.Word),
				Label: normalizeEntityLabel(entity.Entity),
				Score: entity.Score,
			})
		}

		return entities, nil
	}, nil
}

// normalizeEntityLabel removes B- and I- prefixes from NER labels
func normalizeEntityLabel(label string) string {
	if strings.HasPrefix(label, "B-") || strings.HasPrefix(label, "I-") {
		return label[2:]
	}
	return label
}

// DefaultExtractor creates the full caption extractor backed by the NER model
func DefaultExtractor() (ExtractFunc, error) {
	ner, err := DefaultNER()
	if err != nil {
		return nil, err
	}
	return NewExtractor(ner), nil
}

// RuleBasedExtractor creates an extractor that uses only the pin-emoji and
// fallback rules, without a model. Used when no model is available.
func RuleBasedExtractor() ExtractFunc {
	return NewExtractor(nil)
}

// NewExtractor builds the hypothesis extractor over an optional NER function.
//
// Strategy, in order of confidence:
//  1. a pin emoji followed by a place name (most reliable)
//  2. ORG/MISC entities recognized in the caption, paired with a recognized
//     locality when one is mentioned
//  3. the author handle or page title as a single hypothesis
//
// An empty result is returned only when no usable text exists at all; the
// caller surfaces that as "no place found", not as a failure.
func NewExtractor(ner NERFunc) ExtractFunc {
	return func(meta *resolver.LinkMetadata) ([]Hypothesis, error) {
		caption := meta.Caption()
		locality := FindLocality(caption)

		if caption != "" {
			if match := pinPattern.FindStringSubmatch(caption); match != nil {
				name := strings.TrimSpace(trailingPunct.ReplaceAllString(match[1], ""))
				if name != "" {
					return []Hypothesis{{Name: name, Locality: locality}}, nil
				}
			}

			if ner != nil {
				entities, err := ner(caption)
				if err == nil && len(entities) > 0 {
					hypotheses := hypothesesFromEntities(entities, locality)
					if len(hypotheses) > 0 {
						return hypotheses, nil
					}
				}
			}
		}

		// No confident hypothesis from the caption itself
		if author := strings.TrimPrefix(meta.Author, "@"); author != "" {
			return []Hypothesis{{Name: author, Locality: locality}}, nil
		}
		if meta.Title != "" {
			return []Hypothesis{{Name: meta.Title, Locality: locality}}, nil
		}
		if caption != "" {
			return []Hypothesis{{Name: caption, Locality: locality}}, nil
		}

		return []Hypothesis{}, nil
	}
}

// hypothesesFromEntities turns venue-like entities into hypotheses.
// ORG and MISC spans name venues; LOC spans that are not recognized
// localities extend the preceding venue name (e.g. "Ippudo" + "Causeway Bay").
func hypothesesFromEntities(entities []NamedEntity, locality string) []Hypothesis {
	var hypotheses []Hypothesis

	for i, entity := range entities {
		if entity.Label != "ORG" && entity.Label != "MISC" {
			continue
		}
		name := entity.Word
		if i+1 < len(entities) && entities[i+1].Label == "LOC" {
			name = name + " " + entities[i+1].Word
		}
		hypotheses = append(hypotheses, Hypothesis{Name: name, Locality: locality})
	}

	if len(hypotheses) == 0 {
		// Fall back to bare locations when no organization was recognized
		for _, entity := range entities {
			if entity.Label == "LOC" && !strings.EqualFold(entity.Word, locality) {
				hypotheses = append(hypotheses, Hypothesis{Name: entity.Word, Locality: locality})
			}
		}
	}

	return hypotheses
}

// FindLocality returns the first recognized locality mentioned in the text,
// or an empty string.
func FindLocality(text string) string {
	lowered := strings.ToLower(text)
	for _, locality := range localities {
		if strings.Contains(lowered, strings.ToLower(locality)) {
			return locality
		}
	}
	return ""
}

// ExtractTags collects hashtags and known keywords from a caption, capped at
// ten tags.
func ExtractTags(caption string) []string {
	seen := make(map[string]bool)
	var tags []string

	add := func(tag string) {
		tag = strings.ToLower(tag)
		if !seen[tag] && len(tags) < 10 {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}

	for _, match := range hashtagPattern.FindAllStringSubmatch(caption, -1) {
		add(match[1])
	}

	lowered := strings.ToLower(caption)
	for _, keyword := range tagKeywords {
		if strings.Contains(lowered, keyword) {
			add(keyword)
		}
	}

	return tags
}
