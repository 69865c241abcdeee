package auth

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/radarhk/radar/helper"
	"github.com/radarhk/radar/model"
)

const (
	otpLength = 6
	otpTTL    = 5 * time.Minute

	// mvpBypassCode is accepted for any user while MVP mode is on, so the app
	// can be tested without an SMS provider.
	mvpBypassCode = "123456"
)

// UserStore is the subset of user storage the OTP flow needs
type UserStore interface {
	UpsertUserByPhone(user *model.User) error
	SelectUser(id int64) (*model.User, error)
	SelectUserByPhone(phoneNumber string) (*model.User, error)
	SetUserOTP(id int64, code string, expiresAt time.Time) error
	ClearUserOTP(id int64) error
}

// OTPChallenge is the result of requesting a login code. MockOTP is filled
// only in MVP mode, where no SMS is actually sent.
type OTPChallenge struct {
	Message          string `json:"message"`
	MockOTP          string `json:"mock_otp,omitempty"`
	ExpiresInMinutes int    `json:"expires_in_minutes"`
}

// Session is a verified login: a signed bearer token plus the user it belongs to
type Session struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      int64  `json:"user_id"`
	MVPBypass   bool   `json:"mvp_bypass,omitempty"`
}

// OTPService implements phone-only login with one-time codes
type OTPService struct {
	store   UserStore
	issuer  *TokenIssuer
	mvpMode bool
	log     *slog.Logger
}

// NewOTPService creates an OTPService. With mvpMode on, generated codes are
// returned in the challenge response and the bypass code is accepted.
func NewOTPService(store UserStore, issuer *TokenIssuer, mvpMode bool, logger *slog.Logger) *OTPService {
	return &OTPService{
		store:   store,
		issuer:  issuer,
		mvpMode: mvpMode,
		log:     logger,
	}
}

// GenerateOTP returns a random numeric code of otpLength digits
func GenerateOTP() (string, error) {
	code := make([]byte, otpLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", helper.NewError("generate otp", err)
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code), nil
}

// SendOTP generates a code for the phone number, creating the user on first
// contact, and stores it with a short expiry
func (s *OTPService) SendOTP(phoneNumber string) (*OTPChallenge, error) {
	if phoneNumber == "" {
		return nil, helper.NewError("send otp", fmt.Errorf("phone number is empty"))
	}

	user := &model.User{PhoneNumber: phoneNumber}
	err := s.store.UpsertUserByPhone(user)
	if err != nil {
		return nil, helper.NewError("upsert user", err)
	}

	code, err := GenerateOTP()
	if err != nil {
		return nil, err
	}

	err = s.store.SetUserOTP(user.ID, code, time.Now().Add(otpTTL))
	if err != nil {
		return nil, helper.NewError("store otp", err)
	}

	if s.mvpMode {
		s.log.Info("Generated mock OTP", slog.String("phone_number", phoneNumber))
		return &OTPChallenge{
			Message:          "OTP sent (MVP mode)",
			MockOTP:          code,
			ExpiresInMinutes: int(otpTTL.Minutes()),
		}, nil
	}

	// TODO: send the code over SMS once a provider is wired up
	return &OTPChallenge{
		Message:          "OTP sent to your phone",
		ExpiresInMinutes: int(otpTTL.Minutes()),
	}, nil
}

// VerifyOTP checks the code for the phone number and issues a session on
// success. The stored code is cleared after a successful verification.
func (s *OTPService) VerifyOTP(phoneNumber string, code string) (*Session, error) {
	user, err := s.store.SelectUserByPhone(phoneNumber)
	if err != nil {
		return nil, err
	}

	if s.mvpMode && code == mvpBypassCode {
		token, err := s.issuer.CreateToken(user.ID, user.PhoneNumber)
		if err != nil {
			return nil, err
		}
		return &Session{
			AccessToken: token,
			TokenType:   "bearer",
			UserID:      user.ID,
			MVPBypass:   true,
		}, nil
	}

	if user.OTPCode == nil || user.OTPExpires == nil {
		return nil, helper.NewError("verify otp", fmt.Errorf("%w: no pending code", model.ErrAuthRequired))
	}
	if user.OTPExpires.Before(time.Now()) {
		return nil, helper.NewError("verify otp", fmt.Errorf("%w: code expired", model.ErrAuthRequired))
	}
	if *user.OTPCode != code {
		return nil, helper.NewError("verify otp", fmt.Errorf("%w: invalid code", model.ErrAuthRequired))
	}

	err = s.store.ClearUserOTP(user.ID)
	if err != nil {
		return nil, helper.NewError("clear otp", err)
	}

	token, err := s.issuer.CreateToken(user.ID, user.PhoneNumber)
	if err != nil {
		return nil, err
	}

	s.log.Info("Verified OTP login", slog.Int64("user_id", user.ID))

	return &Session{
		AccessToken: token,
		TokenType:   "bearer",
		UserID:      user.ID,
	}, nil
}
