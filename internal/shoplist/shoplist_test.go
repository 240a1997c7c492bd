package shoplist

import (
	"testing"
	"time"

	"github.com/mmynk/foodgram/internal/models"
)

func TestAggregate(t *testing.T) {
	tests := []struct {
		name  string
		lines []models.RecipeIngredient
		want  []Item
	}{
		{
			name:  "empty cart",
			lines: nil,
			want:  []Item{},
		},
		{
			name: "same ingredient across recipes is summed",
			lines: []models.RecipeIngredient{
				{IngredientID: 2, Name: "milk", MeasurementUnit: "ml", Amount: 200},
				{IngredientID: 1, Name: "egg", MeasurementUnit: "pcs", Amount: 2},
				{IngredientID: 2, Name: "milk", MeasurementUnit: "ml", Amount: 100},
			},
			want: []Item{
				{IngredientID: 1, Name: "egg", MeasurementUnit: "pcs", Amount: 2},
				{IngredientID: 2, Name: "milk", MeasurementUnit: "ml", Amount: 300},
			},
		},
		{
			name: "same name with different units stays separate",
			lines: []models.RecipeIngredient{
				{IngredientID: 4, Name: "salt", MeasurementUnit: "pinch", Amount: 1},
				{IngredientID: 3, Name: "salt", MeasurementUnit: "g", Amount: 5},
			},
			want: []Item{
				{IngredientID: 3, Name: "salt", MeasurementUnit: "g", Amount: 5},
				{IngredientID: 4, Name: "salt", MeasurementUnit: "pinch", Amount: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.lines)
			if len(got) != len(tt.want) {
				t.Fatalf("Aggregate() returned %d items, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("item %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRender(t *testing.T) {
	now := time.Date(2026, 10, 15, 18, 30, 5, 0, time.UTC)
	items := []Item{
		{Name: "flour", MeasurementUnit: "g", Amount: 500},
		{Name: "МОЛОКО", MeasurementUnit: "мл", Amount: 300},
	}

	got := Render(now, items, []string{"Bread", "Pancakes"})
	want := "15.10.2026 18:30:05 UTC\n" +
		"Shopping list:\n" +
		"1. Flour: 500 g\n" +
		"2. Молоко: 300 мл\n" +
		"For recipes:\n" +
		"1. Bread\n" +
		"2. Pancakes"

	if got != want {
		t.Errorf("Render() =\n%s\nwant\n%s", got, want)
	}
}

func TestFileName(t *testing.T) {
	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	if got := FileName(now); got != "to_buy_20260102.txt" {
		t.Errorf("FileName() = %q", got)
	}
}
