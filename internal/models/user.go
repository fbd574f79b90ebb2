package models

const ProviderLocal = "local"

type User struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Username string `json:"username" gorm:"type:varchar(150);uniqueIndex;not null"`
	Email    string `json:"email" gorm:"type:varchar(150);uniqueIndex;not null"`
	Password string `json:"-" gorm:"type:varchar(200);not null"`
	IsAdmin  bool   `json:"is_admin" gorm:"not null;default:false"`
	Provider string `json:"provider,omitempty" gorm:"type:varchar(30);not null;default:local"`
}
