// Package forms は入力フォームの検証ルールを提供します。
// 各フィールドは順序付きのルール一覧を持ち、先頭から順に適用されます。
package forms

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Outcome は 1 つのルールの検証結果です。
type Outcome struct {
	OK      bool
	Message string
	// Stop が true で失敗した場合、そのフィールドの残りのルールは実行されず、
	// それまでのメッセージはこのメッセージで置き換えられます。
	Stop bool
}

// Rule は 1 つの値を検証します。
type Rule func(value string) Outcome

// Field は検証対象の値とそのルールです。
type Field struct {
	Name  string
	Value string
	Rules []Rule
}

// Errors はフィールド名ごとのエラーメッセージです。
type Errors map[string][]string

// Valid はエラーが 1 件もないかを返します。
func (e Errors) Valid() bool {
	return len(e) == 0
}

// Add はフィールドにメッセージを追加します。
func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Get はフィールドのメッセージを返します。
func (e Errors) Get(field string) []string {
	return e[field]
}

// Validate は各フィールドのルールを順に適用し、失敗をすべて集めます。
func Validate(fields ...Field) Errors {
	errs := make(Errors)
	for _, f := range fields {
		var messages []string
		for _, rule := range f.Rules {
			out := rule(f.Value)
			if out.OK {
				continue
			}
			if out.Stop {
				messages = []string{out.Message}
				break
			}
			messages = append(messages, out.Message)
		}
		if len(messages) > 0 {
			errs[f.Name] = messages
		}
	}
	return errs
}

// Required は空白のみの値も未入力として扱います。失敗時は後続のルールを実行しません。
func Required(message string) Rule {
	return func(value string) Outcome {
		if strings.TrimSpace(value) == "" {
			return Outcome{Message: message, Stop: true}
		}
		return Outcome{OK: true}
	}
}

// Length は文字数が min 以上 max 以下であることを検証します。
func Length(min, max int) Rule {
	tag := fmt.Sprintf("min=%d,max=%d", min, max)
	message := fmt.Sprintf("Field must be between %d and %d characters long.", min, max)
	return func(value string) Outcome {
		if err := validate.Var(value, tag); err != nil {
			return Outcome{Message: message}
		}
		return Outcome{OK: true}
	}
}

// EqualTo は値が other と一致することを検証します。
func EqualTo(other, message string) Rule {
	return func(value string) Outcome {
		if value != other {
			return Outcome{Message: message}
		}
		return Outcome{OK: true}
	}
}
