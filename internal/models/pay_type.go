package models

import "strings"

// PayType is the billing mode of a subscriber line
type PayType string

const (
	PayTypePrepaid  PayType = "PREPAID"
	PayTypePostpaid PayType = "POSTPAID"
)

// ParsePayType maps the loose spellings found in recharge feeds ("prepaid", "Post-Paid", "1")
// onto a PayType. The second return value is false when the input is not recognised.
func ParsePayType(raw string) (PayType, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	switch s {
	case "PREPAID", "PRE", "0":
		return PayTypePrepaid, true
	case "POSTPAID", "POST", "1":
		return PayTypePostpaid, true
	default:
		return "", false
	}
}

// Ptr returns a pointer to a copy of p, handy for optional tariff plans
func (p PayType) Ptr() *PayType {
	return &p
}
