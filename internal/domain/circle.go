package domain

import "time"

type CircleRole string

const (
	CircleRoleOwner  CircleRole = "owner"
	CircleRoleAdmin  CircleRole = "admin"
	CircleRoleMember CircleRole = "member"
)

// CanManageEvents reports whether the role may lock, finalize or edit
// circle events it did not create.
func (r CircleRole) CanManageEvents() bool {
	return r == CircleRoleOwner || r == CircleRoleAdmin
}

type Circle struct {
	ID      int64  `db:"id"`
	Name    string `db:"name"`
	OwnerID int64  `db:"owner_id"`

	CreatedAt time.Time `db:"created_at"`
}

type CircleMember struct {
	ID       int64      `db:"id"`
	CircleID int64      `db:"circle_id"`
	UserID   int64      `db:"user_id"`
	Role     CircleRole `db:"role"`

	JoinedAt time.Time `db:"joined_at"`
}
