package model

import "time"

// User represents an account authenticated by phone number and OTP
type User struct {
	ID          int64      `json:"id"`
	PhoneNumber string     `json:"phone_number"`
	OTPCode     *string    `json:"-"`
	OTPExpires  *time.Time `json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
