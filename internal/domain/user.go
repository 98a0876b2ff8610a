package domain

// User описывает зарегистрированного пользователя.
// Пользователи хранятся в Redis-хэшах с индексами по email и passid.
type User struct {
	ID             int64
	Email          string
	Name           string
	HashedPassword string
	// PassID — короткий генерируемый идентификатор для входа без email.
	PassID string
}

func NewUser(email string, name string, hashedPassword string, passID string) *User {
	return &User{
		Email:          email,
		Name:           name,
		HashedPassword: hashedPassword,
		PassID:         passID,
	}
}
