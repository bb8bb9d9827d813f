package model

type UserRole string

const (
	Student UserRole = "student"
	Teacher UserRole = "teacher"
	Admin   UserRole = "admin"
)

// User 学习者账号，仅用于身份认证；班级/学校管理由外部系统负责
type User struct {
	BaseModel
	Name     string   `gorm:"size:100;not null" json:"name"`
	Email    string   `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password string   `gorm:"size:255;not null" json:"-"`
	Role     UserRole `gorm:"size:20;default:student" json:"role"`
}

func (User) TableName() string {
	return "users"
}
