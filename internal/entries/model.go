// Package entries はユーザーが記録する感謝エントリーを扱います。
package entries

import "time"

// Entry はユーザーが書いた感謝の記録 1 件です。作成後は変更されません。
type Entry struct {
	ID        int64
	Body      string
	EntryDate time.Time
	UserID    int64
}
