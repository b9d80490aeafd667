package sessions

import "time"

// Session maps an issued identifier to the encrypted payload recorded at login.
type Session struct {
	Identifier string    `gorm:"column:identifier;primaryKey;size:64;not null"`
	Ciphertext []byte    `gorm:"column:ciphertext;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Session) TableName() string {
	return "sessions"
}
