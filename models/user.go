package models

const (
	RoleTeacher = "teacher"
	RoleParent  = "parent"
)

type User struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Username    string `gorm:"column:username;uniqueIndex;not null" json:"username"`
	Password    string `gorm:"column:password;not null" json:"password"`
	UserType    string `gorm:"column:user_type;not null;default:teacher" json:"user_type"`
	FullName    string `gorm:"column:full_name" json:"full_name"`
	Email       string `gorm:"column:email" json:"email"`
	CreatedDate string `gorm:"column:created_date" json:"created_date"`
}

func (User) TableName() string { return "users" }

// PublicUser is a User without its password hash.
type PublicUser struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	UserType    string `json:"user_type"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	CreatedDate string `json:"created_date"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		Username:    u.Username,
		UserType:    u.UserType,
		FullName:    u.FullName,
		Email:       u.Email,
		CreatedDate: u.CreatedDate,
	}
}
