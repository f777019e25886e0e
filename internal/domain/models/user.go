// internal/domain/models/user.go
package models

import "time"

// UserType discriminates coordinators from field volunteers. The numeric
// values are shared with older clients and must not change.
type UserType int

const (
	UserTypeCoordinator UserType = 1
	UserTypeVolunteer   UserType = 2
)

// Valid reports whether t is a known user type.
func (t UserType) Valid() bool {
	return t == UserTypeCoordinator || t == UserTypeVolunteer
}

func (t UserType) String() string {
	switch t {
	case UserTypeCoordinator:
		return "coordinator"
	case UserTypeVolunteer:
		return "volunteer"
	}
	return "unknown"
}

// User is a coordinator or a volunteer.
type User struct {
	ID           string    `bson:"_id" json:"id"`
	FullName     string    `bson:"full_name" json:"full_name"`
	FullNameCI   string    `bson:"full_name_ci" json:"-"`
	LoginID      string    `bson:"login_id" json:"login_id"`
	LoginIDCI    string    `bson:"login_id_ci" json:"-"`
	PasswordHash string    `bson:"password_hash,omitempty" json:"-"`
	PhoneNumber  string    `bson:"phone_number,omitempty" json:"phone_number,omitempty"`
	UserType     UserType  `bson:"user_type" json:"user_type"`
	Status       string    `bson:"status" json:"status"` // active | disabled
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

// IsCoordinator reports whether u coordinates inquiries.
func (u User) IsCoordinator() bool { return u.UserType == UserTypeCoordinator }

// IsVolunteer reports whether u is a field volunteer.
func (u User) IsVolunteer() bool { return u.UserType == UserTypeVolunteer }
