package models

// Roles a user can hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered user account.
type User struct {
	// ID is the unique identifier for the user.
	ID int64

	// Email is the user's email address (unique). Used for login.
	Email string

	// Username is the public handle of the user (unique).
	Username string

	FirstName string
	LastName  string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// Role is either RoleUser or RoleAdmin.
	Role string

	// Avatar is the media path of the avatar image, empty when unset.
	Avatar string

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64

	// IsSubscribed reports whether the viewing user follows this user.
	// Only populated by viewer-aware queries.
	IsSubscribed bool
}

// IsAdmin reports whether the user may use the admin surface.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// NewUser creates a user with the default role.
func NewUser(email, username, firstName, lastName, passwordHash string) *User {
	return &User{
		Email:        email,
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: passwordHash,
		Role:         RoleUser,
	}
}

// Subscription is a follow relationship: User follows Author.
type Subscription struct {
	UserID   int64
	AuthorID int64
}

// AuthorWithRecipes is a followed author together with a preview of their recipes.
type AuthorWithRecipes struct {
	Author       *User
	Recipes      []*Recipe
	RecipesCount int
}
