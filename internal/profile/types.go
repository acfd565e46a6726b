package profile

import "github.com/kalambet/gitprofile/internal/storage"

// Profile is a stored Git identity.
type Profile = storage.Profile

// Selector picks the profile to switch to. Alias is matched as a substring,
// Email exactly, and a profile matching either is selected.
type Selector struct {
	Alias string
	Email string
}

// Listing is every stored profile plus the email git currently uses.
type Listing struct {
	Profiles     []Profile
	CurrentEmail string
}

// Identity is the (name, email) pair configured in git's global scope.
type Identity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
