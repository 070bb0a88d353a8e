package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubscriberState is the mutable current snapshot of a line kept in the document store
type SubscriberState struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	MSISDN         string             `bson:"msisdn" json:"msisdn"`
	ActiveStatus   bool               `bson:"active_status" json:"activeStatus"`
	Blacklisted    bool               `bson:"blacklisted" json:"blacklisted"`
	CurrentBalance float64            `bson:"current_balance" json:"currentBalance"`
	PayType        PayType            `bson:"pay_type" json:"payType"`
	LastUpdated    time.Time          `bson:"last_updated" json:"lastUpdated"`
}
