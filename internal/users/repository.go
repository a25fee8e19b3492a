package users

import "context"

// Repository はユーザーの永続化を抽象化します。
type Repository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
}
