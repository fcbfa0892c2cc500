// Package recipes はレシピの登録、一覧、更新、削除を提供します。
package recipes

import (
	"errors"
	"strings"
	"time"
)

// ErrMissingFields は作成時に必須項目が欠けている場合のエラーです。
var ErrMissingFields = errors.New("recipes: all fields are required")

// Recipe は保存されるレシピです。
type Recipe struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Ingredients     []string  `json:"ingredients"`
	Instructions    string    `json:"instructions"`
	Category        string    `json:"category"`
	PreparationTime int       `json:"preparationTime"`
	CookingTime     int       `json:"cookingTime"`
	Servings        int       `json:"servings"`
	CreatedBy       string    `json:"createdBy"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Input は作成と更新で受け取るリクエストボディです。
// 更新時はゼロ値の項目を変更しません。
type Input struct {
	Name            string   `json:"name"`
	Ingredients     []string `json:"ingredients"`
	Instructions    string   `json:"instructions"`
	Category        string   `json:"category"`
	PreparationTime int      `json:"preparationTime"`
	CookingTime     int      `json:"cookingTime"`
	Servings        int      `json:"servings"`
	CreatedBy       string   `json:"createdBy"`
}

func (in *Input) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Instructions = strings.TrimSpace(in.Instructions)
	in.Category = strings.TrimSpace(in.Category)
	in.CreatedBy = strings.TrimSpace(in.CreatedBy)

	ingredients := make([]string, 0, len(in.Ingredients))
	for _, item := range in.Ingredients {
		if v := strings.TrimSpace(item); v != "" {
			ingredients = append(ingredients, v)
		}
	}
	in.Ingredients = ingredients
}

func (in *Input) validateCreate() error {
	if in.Name == "" || len(in.Ingredients) == 0 || in.Instructions == "" || in.Category == "" ||
		in.PreparationTime <= 0 || in.CookingTime <= 0 || in.Servings <= 0 {
		return ErrMissingFields
	}
	return nil
}

func (in *Input) apply(r *Recipe) {
	if in.Name != "" {
		r.Name = in.Name
	}
	if len(in.Ingredients) > 0 {
		r.Ingredients = in.Ingredients
	}
	if in.Instructions != "" {
		r.Instructions = in.Instructions
	}
	if in.Category != "" {
		r.Category = in.Category
	}
	if in.PreparationTime > 0 {
		r.PreparationTime = in.PreparationTime
	}
	if in.CookingTime > 0 {
		r.CookingTime = in.CookingTime
	}
	if in.Servings > 0 {
		r.Servings = in.Servings
	}
}
