package models

// BorrowableAmount is one tier of the airtime credit ladder
type BorrowableAmount struct {
	PK      int64   `gorm:"column:pk;primaryKey;autoIncrement" json:"pk"`
	Amount  float64 `gorm:"column:amount;not null" json:"amount"`
	Deleted bool    `gorm:"column:deleted;not null;default:false" json:"-"`
}

func (BorrowableAmount) TableName() string { return "borrowable_amount" }
