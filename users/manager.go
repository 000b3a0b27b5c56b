package users

import (
	"context"
	"errors"

	"postboard/schemas"
	"postboard/storage"
)

type UsersManager struct {
	usersStorage storage.UsersStorage
}

func NewUsersManager(usersStorage storage.UsersStorage) *UsersManager {
	return &UsersManager{usersStorage: usersStorage}
}

func (um *UsersManager) GetUser(ctx context.Context, userId schemas.UserId) (*schemas.User, error) {
	user, err := um.usersStorage.GetUser(ctx, userId)
	if err != nil {
		if errors.Is(err, schemas.ErrNotFound) {
			return nil, &schemas.NotFoundError{Entity: "User"}
		}
		return nil, err
	}
	return user, nil
}
