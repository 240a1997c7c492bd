// Package shoplist turns the recipes in a shopping cart into a printable
// list of ingredients to buy.
package shoplist

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/mmynk/foodgram/internal/models"
)

// Item is the total amount of one ingredient across the cart.
type Item struct {
	IngredientID    int64
	Name            string
	MeasurementUnit string
	Amount          int
}

// Aggregate sums amounts per ingredient and orders the result by name.
// Ingredients sharing a name but differing in unit stay separate.
func Aggregate(lines []models.RecipeIngredient) []Item {
	byID := make(map[int64]*Item)
	for _, line := range lines {
		item, ok := byID[line.IngredientID]
		if !ok {
			item = &Item{
				IngredientID:    line.IngredientID,
				Name:            line.Name,
				MeasurementUnit: line.MeasurementUnit,
			}
			byID[line.IngredientID] = item
		}
		item.Amount += line.Amount
	}

	items := make([]Item, 0, len(byID))
	for _, item := range byID {
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].IngredientID < items[j].IngredientID
	})
	return items
}

// DateLayout prints the generation time as dd.mm.yyyy HH:MM:SS TZ.
const DateLayout = "02.01.2006 15:04:05 MST"

// Render formats the list as plain text:
//
//	15.10.2026 18:30:00 UTC
//	Shopping list:
//	1. Flour: 500 g
//	For recipes:
//	1. Bread
func Render(now time.Time, items []Item, recipes []string) string {
	var b strings.Builder

	b.WriteString(now.Format(DateLayout))
	b.WriteString("\nShopping list:")
	for i, item := range items {
		fmt.Fprintf(&b, "\n%d. %s: %d %s", i+1, capitalize(item.Name), item.Amount, item.MeasurementUnit)
	}

	b.WriteString("\nFor recipes:")
	for i, name := range recipes {
		fmt.Fprintf(&b, "\n%d. %s", i+1, name)
	}
	return b.String()
}

// FileName returns the attachment name for a list generated at now.
func FileName(now time.Time) string {
	return "to_buy_" + now.Format("20060102") + ".txt"
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	runes := []rune(strings.ToLower(s))
	if len(runes) > 0 {
		runes[0] = unicode.ToUpper(runes[0])
	}
	return string(runes)
}
