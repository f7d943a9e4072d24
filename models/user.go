package models

import "gorm.io/gorm"

// User represents an account that exchanges messages. The messaging core
// never inspects anything beyond the ID: ownership checks are identity
// equality against stored sender/replier references.
type User struct {
	gorm.Model

	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Name         string `json:"name,omitempty"`

	IsActive     bool `gorm:"default:true" json:"is_active"`
	TokenVersion int  `gorm:"default:0" json:"-"`
}
