package domain

import (
	"strings"
	"unicode/utf8"
)

type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Role      string `json:"role"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
}

// DisplayName resolves the label shown for the user.
// Precedence: "FirstName LastName" when both are set, then Name, then Email.
func (u User) DisplayName() string {
	first, last := strings.TrimSpace(u.FirstName), strings.TrimSpace(u.LastName)
	if first != "" && last != "" {
		return first + " " + last
	}
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	return u.Email
}

// Initial resolves the avatar letter.
// Precedence: FirstName, Name, Email, then "U".
func (u User) Initial() string {
	for _, s := range []string{u.FirstName, u.Name, u.Email} {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		r, _ := utf8.DecodeRuneInString(s)
		return string(r)
	}
	return "U"
}
