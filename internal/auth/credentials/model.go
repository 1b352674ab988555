package credentials

import "fmt"

// Credentials is the sign-in input. It lives for one call and is never
// persisted; String redacts the password so it cannot end up in logs.
type Credentials struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{Email:%q Password:[REDACTED]}", c.Email)
}

func (c Credentials) GoString() string {
	return c.String()
}

// Registration is the local sign-up input.
type Registration struct {
	Email     string `json:"email" binding:"required" validate:"required,email,max=254"`
	Password  string `json:"password" binding:"required" validate:"required"`
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
}

func (r Registration) String() string {
	return fmt.Sprintf("Registration{Email:%q Password:[REDACTED]}", r.Email)
}
