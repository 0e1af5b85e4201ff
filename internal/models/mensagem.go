package models

import "time"

type Message struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SenderID   uint      `gorm:"not null;index" json:"senderId"`
	ReceiverID uint      `gorm:"not null;index" json:"receiverId"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Read       bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	Sender   *User `gorm:"foreignKey:SenderID" json:"Sender,omitempty"`
	Receiver *User `gorm:"foreignKey:ReceiverID" json:"Receiver,omitempty"`
}

func (Message) TableName() string { return "messages" }
