package models

import "time"

type MaterialType string

var materialTypes = map[MaterialType]bool{"image": true, "video": true, "document": true, "link": true, "text": true}

func (t MaterialType) Valid() bool { return materialTypes[t] }

type Material struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Title       string       `gorm:"not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	Type        MaterialType `gorm:"type:varchar(20);not null;default:'link'" json:"type"`
	URL         string       `gorm:"column:url" json:"url"`
	Content     string       `gorm:"type:text" json:"content"`
	Thumbnail   string       `json:"thumbnail"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

func (Material) TableName() string { return "materials" }
