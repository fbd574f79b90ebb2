package models

type Category struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	Name     string    `json:"name" gorm:"type:varchar(100);not null"`
	Products []Product `json:"-" gorm:"foreignKey:CategoryID"`
}
