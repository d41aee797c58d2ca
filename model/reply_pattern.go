package model

import "time"

// ReplyPatternRecord is the persisted form of one auto-reply pattern.
// Position keeps the guild's insertion order across restarts.
type ReplyPatternRecord struct {
	ID           uint      `json:"-" gorm:"primaryKey"`
	GuildID      string    `json:"guild_id" gorm:"column:guild_id;size:32;not null;index:idx_reply_patterns_guild_position,priority:1"`
	Position     int       `json:"position" gorm:"column:position;not null;index:idx_reply_patterns_guild_position,priority:2"`
	Trigger      string    `json:"trigger" gorm:"column:trigger_text;type:text;not null"`
	Response     string    `json:"response" gorm:"column:response;type:text;not null"`
	PerfectMatch bool      `json:"perfect_match" gorm:"column:perfect_match;not null;default:false"`
	CreatedAt    time.Time `json:"-"`
}

func (ReplyPatternRecord) TableName() string {
	return "reply_patterns"
}
