package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signUp struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Username string `json:"username" validate:"required,max=150,username"`
}

type line struct {
	ID     int64 `json:"id" validate:"required"`
	Amount int   `json:"amount" validate:"gte=1"`
}

type recipeBody struct {
	Tags        []int64 `json:"tags" validate:"min=1,unique"`
	Ingredients []line  `json:"ingredients" validate:"min=1,dive"`
	CookingTime int     `json:"cooking_time" validate:"gte=1"`
	Slug        string  `json:"slug" validate:"omitempty,max=32,slug"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.Nil(t, ValidateStruct(&signUp{Email: "a@b.co", Username: "chef.bob+1"}))
	})

	t.Run("non-latin username", func(t *testing.T) {
		assert.Nil(t, ValidateStruct(&signUp{Email: "a@b.co", Username: "Иван_1"}))
		assert.NotNil(t, ValidateStruct(&signUp{Email: "a@b.co", Username: "Иван Петров"}))
	})

	t.Run("reserved username", func(t *testing.T) {
		err := ValidateStruct(&signUp{Email: "a@b.co", Username: ReservedUsername})
		require.NotNil(t, err)
		assert.Contains(t, err.Fields(), "username")
	})

	t.Run("bad characters and long username", func(t *testing.T) {
		err := ValidateStruct(&signUp{Email: "nope", Username: strings.Repeat("x", 151)})
		require.NotNil(t, err)
		fields := err.Fields()
		assert.Equal(t, []string{"email must be a valid email address"}, fields["email"])
		assert.Equal(t, []string{"username must be at most 150 characters"}, fields["username"])
	})

	t.Run("recipe body", func(t *testing.T) {
		err := ValidateStruct(&recipeBody{
			Tags:        []int64{1, 1},
			Ingredients: []line{{ID: 1, Amount: 0}},
			CookingTime: 0,
			Slug:        "bad slug",
		})
		require.NotNil(t, err)
		fields := err.Fields()
		assert.Equal(t, []string{"tags must not contain duplicates"}, fields["tags"])
		assert.Equal(t, []string{"amount must be greater than or equal to 1"}, fields["ingredients"])
		assert.Equal(t, []string{"cooking_time must be greater than or equal to 1"}, fields["cooking_time"])
		assert.Contains(t, fields, "slug")
	})

	t.Run("empty lists", func(t *testing.T) {
		err := ValidateStruct(&recipeBody{CookingTime: 1})
		require.NotNil(t, err)
		assert.Equal(t, []string{"tags must be at least 1 items"}, err.Fields()["tags"])
	})
}

func TestFieldErrorHelpers(t *testing.T) {
	err := NewFieldError("tags", "tag 5 does not exist")
	err.Add("tags", "tag 6 does not exist")
	assert.Equal(t, map[string][]string{"tags": {"tag 5 does not exist", "tag 6 does not exist"}}, err.Fields())
	assert.Equal(t, "tags: tag 5 does not exist; tags: tag 6 does not exist", err.Error())
}
