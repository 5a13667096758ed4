package models

import "time"

// Class groups students and problems under one teacher-managed roster.
type Class struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Identifier  string    `gorm:"size:64;not null;uniqueIndex" json:"identifier"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Problems    []Problem `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Students    []Student `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
