package entries

import "context"

// Repository はエントリーの永続化を抽象化します。
type Repository interface {
	Create(ctx context.Context, entry *Entry) (*Entry, error)
	ListByUser(ctx context.Context, userID int64) ([]Entry, error)
	DeleteByID(ctx context.Context, id int64) error
	DeleteByIDForUser(ctx context.Context, id, userID int64) error
}
