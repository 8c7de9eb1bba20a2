package favorites

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// envelope is the shape older browser builds persisted: the id list wrapped in a state object.
type envelope struct {
	State struct {
		FavoriteRecipeIDs []string `json:"favoriteRecipeIds"`
	} `json:"state"`
	Version int `json:"version"`
}

// decodeIDs parses a persisted favorites value. The result holds no blanks and no duplicates,
// first occurrence wins.
func decodeIDs(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	var ids []string
	if strings.HasPrefix(raw, "{") {
		var env envelope
		if err := json.Unmarshal([]byte(raw), &env); err != nil {
			return nil, fmt.Errorf("decode favorites envelope: %w", err)
		}
		ids = env.State.FavoriteRecipeIDs
	} else if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("decode favorites: %w", err)
	}
	return normalize(ids), nil
}

func normalize(ids []string) []string {
	return lo.Uniq(lo.Filter(ids, func(id string, _ int) bool {
		return strings.TrimSpace(id) != ""
	}))
}

// encodeIDs always writes a plain JSON array, never null.
func encodeIDs(ids []string) string {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		// a []string always marshals
		panic(err)
	}
	return string(b)
}
