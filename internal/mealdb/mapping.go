package mealdb

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"

	"recipefinder/internal/recipes/types"
)

// TheMealDB flattens ingredients into strIngredient1..20 / strMeasure1..20.
const maxIngredients = 20

var errInvalidJSON = errors.New("response was not valid JSON")

// meals returns the records under "meals". A null or missing array is an empty result.
func meals(body []byte) ([]gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return nil, errInvalidJSON
	}
	m := gjson.GetBytes(body, "meals")
	if !m.IsArray() {
		return nil, nil
	}
	return m.Array(), nil
}

func str(rec gjson.Result, field string) string {
	return strings.TrimSpace(rec.Get(field).String())
}

func parseSummary(rec gjson.Result) (types.RecipeSummary, bool) {
	id, name := str(rec, "idMeal"), str(rec, "strMeal")
	if id == "" || name == "" {
		return types.RecipeSummary{}, false
	}
	return types.RecipeSummary{
		ID:        id,
		Name:      name,
		Thumbnail: str(rec, "strMealThumb"),
	}, true
}

func parseDetail(rec gjson.Result) (types.RecipeDetail, bool) {
	summary, ok := parseSummary(rec)
	if !ok {
		return types.RecipeDetail{}, false
	}

	var ingredients []types.Ingredient
	for n := 1; n <= maxIngredients; n++ {
		name := str(rec, fmt.Sprintf("strIngredient%d", n))
		if name == "" {
			continue
		}
		ingredients = append(ingredients, types.Ingredient{
			Name:    name,
			Measure: str(rec, fmt.Sprintf("strMeasure%d", n)),
		})
	}

	tags := lo.Compact(lo.Map(strings.Split(str(rec, "strTags"), ","), func(tag string, _ int) string {
		return strings.TrimSpace(tag)
	}))

	return types.RecipeDetail{
		ID:           summary.ID,
		Name:         summary.Name,
		Thumbnail:    summary.Thumbnail,
		Category:     str(rec, "strCategory"),
		Area:         str(rec, "strArea"),
		Instructions: str(rec, "strInstructions"),
		Ingredients:  ingredients,
		Tags:         tags,
		YouTube:      str(rec, "strYoutube"),
		Source:       str(rec, "strSource"),
	}, true
}

func parseSummaries(body []byte) ([]types.RecipeSummary, error) {
	recs, err := meals(body)
	if err != nil {
		return nil, err
	}
	return lo.FilterMap(recs, func(rec gjson.Result, _ int) (types.RecipeSummary, bool) {
		return parseSummary(rec)
	}), nil
}

func parseDetails(body []byte) ([]types.RecipeDetail, error) {
	recs, err := meals(body)
	if err != nil {
		return nil, err
	}
	return lo.FilterMap(recs, func(rec gjson.Result, _ int) (types.RecipeDetail, bool) {
		return parseDetail(rec)
	}), nil
}

// parseCategories reads list.php?c=list, whose records only carry strCategory.
func parseCategories(body []byte) ([]types.Category, error) {
	recs, err := meals(body)
	if err != nil {
		return nil, err
	}
	return lo.FilterMap(recs, func(rec gjson.Result, _ int) (types.Category, bool) {
		name := str(rec, "strCategory")
		return types.Category{
			Name:        name,
			Thumbnail:   str(rec, "strCategoryThumb"),
			Description: str(rec, "strCategoryDescription"),
		}, name != ""
	}), nil
}
