package models

import "time"

// Subscriber is the relational identity of a line, keyed by its normalized MSISDN
type Subscriber struct {
	PK           int64     `gorm:"column:pk;primaryKey;autoIncrement" json:"pk"`
	MSISDN       string    `gorm:"column:msisdn;uniqueIndex;not null" json:"msisdn"`
	InDebt       bool      `gorm:"column:in_debt;not null;default:false" json:"inDebt"`
	AutoRecharge bool      `gorm:"column:auto_recharge;not null;default:false" json:"autoRecharge"`
	Deleted      bool      `gorm:"column:deleted;not null;default:false" json:"-"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName pins the table name used by the nano schema
func (Subscriber) TableName() string { return "subscriber" }
