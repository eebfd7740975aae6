package application

// Application scopes persona creation for a frontend domain. Names are
// unique across the registry; several applications may share a domain.
type Application struct {
	Domain    string `json:"domain"`
	Name      string `json:"name"`
	UserLimit uint16 `json:"user_limit"`
}

// DefaultUserLimit applies to domains without a configured application.
const DefaultUserLimit uint16 = 5
