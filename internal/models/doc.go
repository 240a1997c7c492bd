// Package models defines the core domain models for Foodgram.
//
// # Models
//
//   - User: registered account that authors recipes and follows other users
//   - Tag, Ingredient: reference data attached to recipes
//   - Recipe: a published recipe with its ingredient amounts and tags
//   - Subscription: a follow relationship between two users
//   - ShortLink: random code resolving to a recipe
//
// Favorites and shopping cart entries are plain (user, recipe) pairs and
// have no model of their own; see RecipeRelation.
//
// # Design Principles
//
//  1. Relationships are expressed with integer IDs, never with pointers
//     back to the owning entity.
//  2. Per-viewer flags (IsFavorited, IsSubscribed, ...) live on the
//     read models and are filled by the storage layer for a given viewer.
package models
