package types

import (
	"strings"
)

// RecipeSummary is what search, category and random results carry.
type RecipeSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

type Ingredient struct {
	Name    string `json:"name"`
	Measure string `json:"measure,omitempty"`
}

func (i Ingredient) String() string {
	if i.Measure == "" {
		return i.Name
	}
	return i.Measure + " " + i.Name
}

// RecipeDetail is a full recipe record. Ingredients are in the order the source listed them.
type RecipeDetail struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Category     string       `json:"category,omitempty"`
	Area         string       `json:"area,omitempty"`
	Instructions string       `json:"instructions,omitempty"`
	Thumbnail    string       `json:"thumbnail,omitempty"`
	Ingredients  []Ingredient `json:"ingredients,omitempty"`
	Tags         []string     `json:"tags,omitempty"`
	YouTube      string       `json:"youtube,omitempty"`
	Source       string       `json:"source,omitempty"`
}

// Steps splits the instructions into non-blank lines.
func (r RecipeDetail) Steps() []string {
	var steps []string
	for _, line := range strings.Split(strings.ReplaceAll(r.Instructions, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		steps = append(steps, line)
	}
	return steps
}

func (r RecipeDetail) Summary() RecipeSummary {
	return RecipeSummary{ID: r.ID, Name: r.Name, Thumbnail: r.Thumbnail}
}

type Category struct {
	Name        string `json:"name"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Description string `json:"description,omitempty"`
}
