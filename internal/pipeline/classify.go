package pipeline

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"recognition-pipeline/internal/model"
)

// DefaultCategoryID is assigned when no taxonomy is available at all.
const DefaultCategoryID = "general"

const (
	baseConfidence  = 0.5
	confidenceStep  = 0.15
	confidenceLimit = 0.95
	minKeywordRunes = 4
)

var (
	nonWord     = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
	punctuation = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)
)

// IndexOptions controls which taxonomy text feeds the keyword index.
type IndexOptions struct {
	// IncludeSubcategoryTokens unions each subcategory name's tokens into its
	// parent category's keyword set.
	IncludeSubcategoryTokens bool
}

type categoryKeywords struct {
	id       string
	name     string
	keywords []string
}

// KeywordIndex maps each taxonomy category to its keyword set. Build it once
// per taxonomy; it is read-only afterwards and safe for concurrent use.
type KeywordIndex struct {
	categories []categoryKeywords
}

// NewKeywordIndex builds the keyword index for tax. A nil taxonomy yields an
// empty index.
func NewKeywordIndex(tax *model.Taxonomy, opts IndexOptions) *KeywordIndex {
	ix := &KeywordIndex{}
	if tax == nil {
		return ix
	}
	for _, c := range tax.Categories {
		set := make(map[string]struct{})
		for _, tok := range nonWord.Split(strings.ToLower(c.Name+" "+c.Description), -1) {
			addKeyword(set, tok)
		}
		if opts.IncludeSubcategoryTokens {
			for _, s := range c.Subcategories {
				for _, tok := range subcategoryTokens(s.Name) {
					addKeyword(set, tok)
				}
			}
		}
		ix.categories = append(ix.categories, categoryKeywords{
			id:       c.ID,
			name:     c.Name,
			keywords: sortedKeys(set),
		})
	}
	return ix
}

// Keywords returns the keyword set of category id, sorted.
func (ix *KeywordIndex) Keywords(id string) []string {
	for _, c := range ix.categories {
		if c.id == id {
			return append([]string(nil), c.keywords...)
		}
	}
	return nil
}

// Len returns the number of indexed categories.
func (ix *KeywordIndex) Len() int { return len(ix.categories) }

// best returns the index and score of the highest scoring category. Ties
// keep the earliest category. Returns -1 when nothing scores above zero.
func (ix *KeywordIndex) best(text string) (int, int) {
	bestIdx, bestScore := -1, 0
	for i, c := range ix.categories {
		if score := countContained(text, c.keywords); score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	return bestIdx, bestScore
}

// countContained counts keywords occurring anywhere in text as substrings.
func countContained(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			n++
		}
	}
	return n
}

func subcategoryTokens(name string) []string {
	return strings.Fields(punctuation.ReplaceAllString(strings.ToLower(name), ""))
}

func addKeyword(set map[string]struct{}, tok string) {
	if utf8.RuneCountInString(tok) >= minKeywordRunes {
		set[tok] = struct{}{}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// SubcategoryScorer picks a subcategory of an already chosen category.
// It returns "" when it cannot decide.
type SubcategoryScorer interface {
	Subcategory(cat model.Category, text string) string
}

// KeywordSubcategoryScorer scores the chosen category's subcategory names
// against the message with the same substring rule used for categories.
type KeywordSubcategoryScorer struct{}

func (KeywordSubcategoryScorer) Subcategory(cat model.Category, text string) string {
	bestID, bestScore := "", 0
	for _, s := range cat.Subcategories {
		set := make(map[string]struct{})
		for _, tok := range subcategoryTokens(s.Name) {
			addKeyword(set, tok)
		}
		if score := countContained(text, sortedKeys(set)); score > bestScore {
			bestID, bestScore = s.ID, score
		}
	}
	return bestID
}

// ClassifierOptions configures a Classifier.
type ClassifierOptions struct {
	// DefaultCategory is used when no category scores above zero. Empty means
	// the first taxonomy category, or DefaultCategoryID without a taxonomy.
	DefaultCategory string
	// IncludeSubcategoryTokens adds subcategory name tokens to each category's
	// keywords. Service enables it unless configured otherwise.
	IncludeSubcategoryTokens bool
	// Subcategories resolves subcategories; nil leaves them empty.
	Subcategories SubcategoryScorer
}

// Classifier assigns messages to taxonomy categories by keyword overlap.
type Classifier struct {
	tax      *model.Taxonomy
	index    *KeywordIndex
	fallback string
	subs     SubcategoryScorer
}

// NewClassifier builds a classifier for tax. tax may be nil or empty, in
// which case every message gets the default category at base confidence.
func NewClassifier(tax *model.Taxonomy, opts ClassifierOptions) *Classifier {
	if tax != nil && len(tax.Categories) == 0 {
		tax = nil
	}
	c := &Classifier{
		tax:   tax,
		index: NewKeywordIndex(tax, IndexOptions{IncludeSubcategoryTokens: opts.IncludeSubcategoryTokens}),
		subs:  opts.Subcategories,
	}
	switch {
	case opts.DefaultCategory != "":
		c.fallback = opts.DefaultCategory
	case tax != nil:
		c.fallback = tax.Categories[0].ID
	default:
		c.fallback = DefaultCategoryID
	}
	return c
}

// Index exposes the classifier's keyword index.
func (c *Classifier) Index() *KeywordIndex { return c.index }

// Classify scores msg against every category and returns the best match.
func (c *Classifier) Classify(msg model.Message) model.Classification {
	result := model.Classification{
		MessageID:  msg.ID,
		Category:   c.fallback,
		Confidence: baseConfidence,
	}
	if c.tax == nil {
		return result
	}

	text := strings.ToLower(msg.Text())
	idx, score := c.index.best(text)
	if idx >= 0 {
		result.Category = c.index.categories[idx].id
		result.Matched = true
	}
	result.Score = score
	result.Confidence = math.Min(confidenceLimit, baseConfidence+confidenceStep*float64(score))

	if c.subs != nil {
		if cat, ok := c.tax.CategoryByID(result.Category); ok {
			result.Subcategory = c.subs.Subcategory(cat, text)
		}
	}
	return result
}

// ClassifyAll classifies msgs in order.
func (c *Classifier) ClassifyAll(msgs []model.Message) []model.Classification {
	out := make([]model.Classification, len(msgs))
	for i, m := range msgs {
		out[i] = c.Classify(m)
	}
	return out
}
