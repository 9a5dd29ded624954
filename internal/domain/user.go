package domain

import "time"

type User struct {
	ID        int64   `db:"id"`
	Email     string  `db:"email"`
	Name      string  `db:"name"`
	PushToken *string `db:"push_token"`

	CreatedAt time.Time `db:"created_at"`
}
