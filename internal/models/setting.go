package models

import "time"

type Setting struct {
	Key       string    `gorm:"primaryKey;size:128" json:"key"`
	Value     *string   `                           json:"value"`
	UpdatedAt time.Time `                           json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}
