package forms

// 画面に表示するメッセージ
const (
	MsgPasswordMismatch = "Passwords do not match"
	MsgPasswordRequired = "This field is required."
	MsgUsernameRequired = "Username required"
	MsgLoginPassword    = "Password Required"
	MsgEntryRequired    = "Please type what you are thankful for."
	MsgUsernameTaken    = "Username already taken."
	MsgLoginFailed      = "Username or password is incorrect."
)

// RegistrationForm はユーザー登録フォームです。
type RegistrationForm struct {
	Name     string `form:"name"`
	Username string `form:"username"`
	Password string `form:"password"`
	Confirm  string `form:"confirm"`
}

// Validate は入力を検証します。
func (f RegistrationForm) Validate() Errors {
	return Validate(
		Field{Name: "name", Value: f.Name, Rules: []Rule{Length(1, 50)}},
		Field{Name: "username", Value: f.Username, Rules: []Rule{Length(4, 25)}},
		Field{Name: "password", Value: f.Password, Rules: []Rule{
			Length(8, 99),
			Required(MsgPasswordRequired),
			EqualTo(f.Confirm, MsgPasswordMismatch),
		}},
	)
}

// LoginForm はログインフォームです。
type LoginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

// Validate は入力を検証します。
func (f LoginForm) Validate() Errors {
	return Validate(
		Field{Name: "username", Value: f.Username, Rules: []Rule{Required(MsgUsernameRequired)}},
		Field{Name: "password", Value: f.Password, Rules: []Rule{Required(MsgLoginPassword)}},
	)
}

// EntryForm は感謝の記録フォームです。
type EntryForm struct {
	Entry string `form:"entry"`
}

// Validate は入力を検証します。
func (f EntryForm) Validate() Errors {
	return Validate(
		Field{Name: "entry", Value: f.Entry, Rules: []Rule{Required(MsgEntryRequired)}},
	)
}
