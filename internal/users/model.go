// Package users はユーザーの資格情報の保存と検証を提供します。
package users

import "time"

// User は登録済みユーザーを表します。一度作成されたら更新されません。
type User struct {
	ID           int64
	Name         string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
