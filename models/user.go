package models

type User struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Phone   string   `json:"phone"`
	Avatar  string   `json:"avatar,omitempty"`
	Tickets []Ticket `json:"tickets"`
}

// Clone returns a deep copy of the user, including its tickets.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Tickets = CloneTickets(u.Tickets)
	return &c
}

type SignupInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}
