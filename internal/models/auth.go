package models

// LoginRequest defines the structure for admin login requests
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CreateSubscriberRequest is the first-contact payload used by borrow channels
type CreateSubscriberRequest struct {
	MSISDN  string `json:"msisdn" binding:"required"`
	PayType string `json:"payType"`
}
