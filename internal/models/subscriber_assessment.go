package models

import "time"

// SubscriberAssessment holds the recharge-derived counters used to place a subscriber
// on the borrowable amount ladder. One non-deleted row exists per subscriber.
type SubscriberAssessment struct {
	PK                 int64       `gorm:"column:pk;primaryKey;autoIncrement" json:"pk"`
	SubscriberPK       int64       `gorm:"column:subscriber_fk;uniqueIndex;not null" json:"subscriberPk"`
	Subscriber         *Subscriber `gorm:"foreignKey:SubscriberPK;references:PK" json:"-"`
	AgeOnNetwork       int         `gorm:"column:age_on_network;not null;default:0" json:"ageOnNetwork"`
	NumberOfTopUps     int         `gorm:"column:number_of_top_ups;not null;default:0" json:"numberOfTopUps"`
	TopUpDuration      int         `gorm:"column:top_up_duration;not null;default:0" json:"topUpDuration"`
	TopUpValueDuration int         `gorm:"column:top_up_value_duration;not null;default:0" json:"topUpValueDuration"`
	TotalTopUpValue    float64     `gorm:"column:total_top_up_value;not null;default:0" json:"totalTopUpValue"`
	TariffPlan         *PayType    `gorm:"column:tariff_plan" json:"tariffPlan,omitempty"`
	LastProcessed      time.Time   `gorm:"column:last_processed;not null" json:"lastProcessed"`
	InDebt             bool        `gorm:"column:in_debt;not null;default:false" json:"inDebt"`
	Deleted            bool        `gorm:"column:deleted;not null;default:false" json:"-"`
}

func (SubscriberAssessment) TableName() string { return "subscriber_assessment" }
