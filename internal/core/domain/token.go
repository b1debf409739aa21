package domain

// TokenType discriminates the payload carried by a bearer token.
type TokenType string

const (
	TokenTypeAdmin TokenType = "admin"
	TokenTypeUser  TokenType = "user"
)

// Valid reports whether t is a known token type.
func (t TokenType) Valid() bool {
	return t == TokenTypeAdmin || t == TokenTypeUser
}

// TokenPayload is the verified content of a bearer token.
type TokenPayload interface {
	Subject() (id int64, email string)
	Type() TokenType
}

// UserPayload is carried by tokens issued to regular users.
type UserPayload struct {
	ID    int64
	Email string
}

func (p UserPayload) Subject() (int64, string) { return p.ID, p.Email }
func (p UserPayload) Type() TokenType         { return TokenTypeUser }

// AdminPayload is carried by tokens issued to administrators.
type AdminPayload struct {
	ID    int64
	Email string
}

func (p AdminPayload) Subject() (int64, string) { return p.ID, p.Email }
func (p AdminPayload) Type() TokenType         { return TokenTypeAdmin }

// NewTokenPayload builds the payload variant matching t.
func NewTokenPayload(t TokenType, id int64, email string) (TokenPayload, bool) {
	switch t {
	case TokenTypeUser:
		return UserPayload{ID: id, Email: email}, true
	case TokenTypeAdmin:
		return AdminPayload{ID: id, Email: email}, true
	default:
		return nil, false
	}
}
