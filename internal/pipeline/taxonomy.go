package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"gopkg.in/yaml.v3"

	"recognition-pipeline/internal/model"
)

// flexID accepts identifiers written as strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

func (f *flexID) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return errors.New("id must be a scalar")
	}
	*f = flexID(node.Value)
	return nil
}

type subcategoryDoc struct {
	ID   flexID `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

type categoryDoc struct {
	ID            flexID           `json:"id" yaml:"id"`
	Name          string           `json:"name" yaml:"name"`
	Description   string           `json:"description" yaml:"description"`
	Subcategories []subcategoryDoc `json:"subcategories" yaml:"subcategories"`
}

// taxonomyDoc covers both legacy document shapes: flat with categories at
// the top level, and wrapped under a taxonomy key.
type taxonomyDoc struct {
	Categories *[]categoryDoc `json:"categories" yaml:"categories"`
	Taxonomy   *struct {
		Categories *[]categoryDoc `json:"categories" yaml:"categories"`
	} `json:"taxonomy" yaml:"taxonomy"`
}

// DecodeTaxonomy parses a JSON taxonomy document in either the flat or the
// wrapped shape into a canonical Taxonomy.
func DecodeTaxonomy(data []byte) (*model.Taxonomy, error) {
	var doc taxonomyDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &FormatError{Source: "taxonomy", Err: err}
	}
	return doc.normalize()
}

// DecodeTaxonomyYAML is DecodeTaxonomy for YAML documents.
func DecodeTaxonomyYAML(data []byte) (*model.Taxonomy, error) {
	var doc taxonomyDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &FormatError{Source: "taxonomy", Err: err}
	}
	return doc.normalize()
}

// LoadTaxonomy decodes a JSON taxonomy and returns nil when the document is
// missing or malformed, so callers fall back to the no-taxonomy path.
func LoadTaxonomy(data []byte) *model.Taxonomy {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	tax, err := DecodeTaxonomy(data)
	if err != nil {
		return nil
	}
	return tax
}

func (d taxonomyDoc) normalize() (*model.Taxonomy, error) {
	var cats *[]categoryDoc
	switch {
	case d.Categories != nil:
		cats = d.Categories
	case d.Taxonomy != nil && d.Taxonomy.Categories != nil:
		cats = d.Taxonomy.Categories
	default:
		return nil, &FormatError{Source: "taxonomy", Field: "categories", Err: errors.New("document has neither categories nor taxonomy.categories")}
	}

	tax := &model.Taxonomy{Categories: make([]model.Category, 0, len(*cats))}
	seen := make(map[string]struct{}, len(*cats))
	for _, c := range *cats {
		name := strings.TrimSpace(c.Name)
		id := strings.TrimSpace(string(c.ID))
		if id == "" {
			id = name
		}
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		cat := model.Category{
			ID:            id,
			Name:          name,
			Description:   strings.TrimSpace(c.Description),
			Subcategories: make([]model.Subcategory, 0, len(c.Subcategories)),
		}
		subSeen := make(map[string]struct{}, len(c.Subcategories))
		for _, s := range c.Subcategories {
			subName := strings.TrimSpace(s.Name)
			subID := strings.TrimSpace(string(s.ID))
			if subID == "" {
				subID = subName
			}
			if subID == "" {
				continue
			}
			if _, dup := subSeen[subID]; dup {
				continue
			}
			subSeen[subID] = struct{}{}
			cat.Subcategories = append(cat.Subcategories, model.Subcategory{ID: subID, Name: subName})
		}
		tax.Categories = append(tax.Categories, cat)
	}
	return tax, nil
}
