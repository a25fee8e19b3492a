// Package common はレイヤー間で共有するエラー定義を提供します。
package common

import "errors"

var (
	// リポジトリ層
	ErrNotFound          = errors.New("not found")
	ErrDuplicateUsername = errors.New("username already exists")

	// サービス層
	ErrValidation      = errors.New("validation error")
	ErrAuthFailure     = errors.New("incorrect username or password")
	ErrUnauthenticated = errors.New("unauthenticated")
)
