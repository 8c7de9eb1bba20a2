package favorites

import (
	"context"
	"fmt"
)

// Favorites is the part of Manager the view layer needs.
type Favorites interface {
	IsFavorite(id string) bool
	Toggle(ctx context.Context, id string) bool
	Count() int
}

var _ Favorites = (*Manager)(nil)

type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
)

// Notification is the transient message shown after a toggle. It auto-dismisses and
// expects no acknowledgement.
type Notification struct {
	Level    Level  `json:"level"`
	Message  string `json:"message"`
	RecipeID string `json:"recipe_id"`
	Favorite bool   `json:"favorite"`
}

// ButtonState is everything the favorite toggle needs to render.
type ButtonState struct {
	ID       string
	Name     string
	Favorite bool
	Label    string
}

// Binding connects recipe views to the favorites set.
type Binding struct {
	favorites Favorites
}

func NewBinding(f Favorites) *Binding {
	return &Binding{favorites: f}
}

func (b *Binding) State(id, name string) ButtonState {
	return buttonState(id, name, b.favorites.IsFavorite(id))
}

func buttonState(id, name string, favorite bool) ButtonState {
	label := "Save to favorites"
	if favorite {
		label = "Remove from favorites"
	}
	return ButtonState{ID: id, Name: name, Favorite: favorite, Label: label}
}

// Toggle flips id and returns the notification for the new state.
func (b *Binding) Toggle(ctx context.Context, id, name string) (ButtonState, Notification) {
	favorite := b.favorites.Toggle(ctx, id)
	return buttonState(id, name, favorite), notificationFor(id, name, favorite)
}

func (b *Binding) Count() int {
	return b.favorites.Count()
}

func notificationFor(id, name string, favorite bool) Notification {
	if name == "" {
		name = "Recipe"
	}
	if favorite {
		return Notification{
			Level:    LevelSuccess,
			Message:  fmt.Sprintf("%q saved to favorites!", name),
			RecipeID: id,
			Favorite: true,
		}
	}
	return Notification{
		Level:    LevelInfo,
		Message:  fmt.Sprintf("%q removed from favorites.", name),
		RecipeID: id,
	}
}
