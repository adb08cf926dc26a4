package category

// Category is the coarse kind of results a query asks for.
type Category string

// Category constants.
const (
	// All mixes repositories, code matches and users in fixed proportions.
	All          Category = "all"
	Repositories Category = "repositories"
	Code         Category = "code"
	Users        Category = "users"
)

// IsValid checks if the category is one of the supported values.
func (c Category) IsValid() bool {
	return c == All || c == Repositories || c == Code || c == Users
}

// String returns the wire name.
func (c Category) String() string { return string(c) }
