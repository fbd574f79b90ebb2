package auth

import "flower_shop/internal/models"

// Actor is whoever is making the current request.
type Actor struct {
	UserID   *uint  `json:"user_id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	IsAdmin  bool   `json:"is_admin"`
}

func Guest() Actor {
	return Actor{}
}

func ActorFor(u *models.User) Actor {
	id := u.ID
	return Actor{UserID: &id, Username: u.Username, Email: u.Email, IsAdmin: u.IsAdmin}
}

func (a Actor) Authenticated() bool {
	return a.UserID != nil
}
