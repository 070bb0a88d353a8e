package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubscriberHistory is one recharge event in the append-only ledger
type SubscriberHistory struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	MSISDN                string             `bson:"msisdn" json:"msisdn"`
	VoucherBatchNumber    string             `bson:"voucher_batch_number,omitempty" json:"voucherBatchNumber,omitempty"`
	VoucherSequence       string             `bson:"voucher_sequence,omitempty" json:"voucherSequence,omitempty"`
	TransactionID         string             `bson:"transaction_id,omitempty" json:"transactionId,omitempty"`
	OldUserState          string             `bson:"old_user_state,omitempty" json:"oldUserState,omitempty"`
	CurrentUserState      string             `bson:"current_user_state,omitempty" json:"currentUserState,omitempty"`
	CardFaceValue         float64            `bson:"card_face_value" json:"cardFaceValue"`
	PrepaidBalanceBefore  float64            `bson:"prepaid_balance_before" json:"prepaidBalanceBefore"`
	PrepaidBalance        float64            `bson:"prepaid_balance" json:"prepaidBalance"`
	RechargeForPrepaid    float64            `bson:"recharge_for_prepaid" json:"rechargeForPrepaid"`
	PostpaidBalanceBefore float64            `bson:"postpaid_balance_before" json:"postpaidBalanceBefore"`
	PostpaidBalance       float64            `bson:"postpaid_balance" json:"postpaidBalance"`
	RechargeForPostpaid   float64            `bson:"recharge_for_postpaid" json:"rechargeForPostpaid"`
	RechargeTime          time.Time          `bson:"recharge_time" json:"rechargeTime"`
	PayType               PayType            `bson:"pay_type,omitempty" json:"payType,omitempty"`
	TradeType             string             `bson:"trade_type,omitempty" json:"tradeType,omitempty"`
	LoanIndicator         bool               `bson:"loan_indicator" json:"loanIndicator"`
}

// RechargeAmount is the value credited by this event on whichever side of the account it landed
func (h *SubscriberHistory) RechargeAmount() float64 {
	if h.RechargeForPrepaid > 0 {
		return h.RechargeForPrepaid
	}
	if h.RechargeForPostpaid > 0 {
		return h.RechargeForPostpaid
	}
	return h.CardFaceValue
}
