package schemas

import "time"

// User is owned by the external auth service; this backend only reads it.
type User struct {
	ID        UserId
	Email     string
	Username  string
	CreatedAt time.Time
}

type UserData struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	CreatedAt string `json:"createdAt"`
}

func (u *User) ToUserData() UserData {
	return UserData{
		ID:        string(u.ID),
		Email:     u.Email,
		Username:  u.Username,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (u *User) Like() Like {
	return Like{UserID: u.ID, Username: u.Username}
}
