package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/radarhk/radar/helper"
	"github.com/radarhk/radar/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserStore struct {
	users  map[string]*model.User
	nextID int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*model.User{}}
}

func (f *fakeUserStore) UpsertUserByPhone(user *model.User) error {
	if existing, ok := f.users[user.PhoneNumber]; ok {
		*user = *existing
		return nil
	}
	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	stored := *user
	f.users[user.PhoneNumber] = &stored
	return nil
}

func (f *fakeUserStore) SelectUser(id int64) (*model.User, error) {
	for _, user := range f.users {
		if user.ID == id {
			copied := *user
			return &copied, nil
		}
	}
	return nil, helper.NewError("select user", model.ErrNotFound)
}

func (f *fakeUserStore) SelectUserByPhone(phoneNumber string) (*model.User, error) {
	user, ok := f.users[phoneNumber]
	if !ok {
		return nil, helper.NewError("select user by phone", model.ErrNotFound)
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserStore) SetUserOTP(id int64, code string, expiresAt time.Time) error {
	for _, user := range f.users {
		if user.ID == id {
			user.OTPCode = &code
			user.OTPExpires = &expiresAt
			return nil
		}
	}
	return helper.NewError("set user otp", model.ErrNotFound)
}

func (f *fakeUserStore) ClearUserOTP(id int64) error {
	for _, user := range f.users {
		if user.ID == id {
			user.OTPCode = nil
			user.OTPExpires = nil
			return nil
		}
	}
	return helper.NewError("clear user otp", model.ErrNotFound)
}

func testLogger() *slog.Logger {
	return slog.New(helper.NewPrettyHandler(os.Stdout, helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{Level: slog.LevelError},
	}))
}

func TestTokenIssuer(t *testing.T) {
	issuer, err := NewTokenIssuer("test-signing-secret")
	require.NoError(t, err, "expected issuer with non-empty secret")

	t.Run("round trip returns user id", func(t *testing.T) {
		token, err := issuer.CreateToken(42, "+85291234567")
		assert.NoError(t, err, "expected token to be signed")
		assert.NotEmpty(t, token, "expected non-empty token string")

		userID, err := issuer.ValidateToken(token)
		assert.NoError(t, err, "expected valid token to pass validation")
		assert.Equal(t, int64(42), userID, "expected user id from claims")
	})

	t.Run("malformed token rejected", func(t *testing.T) {
		_, err := issuer.ValidateToken("not.a.token")
		assert.Error(t, err, "expected malformed token to fail")
		assert.True(t, errors.Is(err, model.ErrAuthRequired), "expected auth required error")
	})

	t.Run("token signed with other key rejected", func(t *testing.T) {
		other, err := NewTokenIssuer("a-different-secret")
		require.NoError(t, err)
		token, err := other.CreateToken(42, "+85291234567")
		require.NoError(t, err)

		_, err = issuer.ValidateToken(token)
		assert.Error(t, err, "expected foreign-key token to fail")
		assert.True(t, errors.Is(err, model.ErrAuthRequired), "expected auth required error")
	})

	t.Run("empty secret rejected", func(t *testing.T) {
		_, err := NewTokenIssuer("")
		assert.Error(t, err, "expected error for empty signing secret")
	})
}

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := GenerateOTP()
		assert.NoError(t, err, "expected code generation to succeed")
		assert.Len(t, code, otpLength, "expected fixed-length code")
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9', fmt.Sprintf("expected numeric code, got %q", code))
		}
	}
}

func TestOTPService(t *testing.T) {
	issuer, err := NewTokenIssuer("test-signing-secret")
	require.NoError(t, err)

	t.Run("send creates user and stores code", func(t *testing.T) {
		store := newFakeUserStore()
		service := NewOTPService(store, issuer, true, testLogger())

		challenge, err := service.SendOTP("+85291234567")
		assert.NoError(t, err, "expected challenge for new phone number")
		assert.Len(t, challenge.MockOTP, otpLength, "expected mock code in mvp mode")
		assert.Equal(t, 5, challenge.ExpiresInMinutes, "expected five minute expiry")

		user, err := store.SelectUserByPhone("+85291234567")
		assert.NoError(t, err, "expected user created on first contact")
		assert.NotNil(t, user.OTPCode, "expected pending code stored")
	})

	t.Run("send hides code outside mvp mode", func(t *testing.T) {
		store := newFakeUserStore()
		service := NewOTPService(store, issuer, false, testLogger())

		challenge, err := service.SendOTP("+85291234567")
		assert.NoError(t, err, "expected challenge")
		assert.Empty(t, challenge.MockOTP, "expected no code leaked outside mvp mode")
	})

	t.Run("verify with stored code issues session and clears code", func(t *testing.T) {
		store := newFakeUserStore()
		service := NewOTPService(store, issuer, true, testLogger())

		challenge, err := service.SendOTP("+85291234567")
		require.NoError(t, err)

		session, err := service.VerifyOTP("+85291234567", challenge.MockOTP)
		assert.NoError(t, err, "expected correct code to verify")
		assert.Equal(t, "bearer", session.TokenType, "expected bearer session")
		assert.False(t, session.MVPBypass, "expected real code not flagged as bypass")

		userID, err := issuer.ValidateToken(session.AccessToken)
		assert.NoError(t, err, "expected issued token to validate")
		assert.Equal(t, session.UserID, userID, "expected token bound to verified user")

		user, err := store.SelectUserByPhone("+85291234567")
		require.NoError(t, err)
		assert.Nil(t, user.OTPCode, "expected code cleared after verification")
	})

	t.Run("verify rejects wrong code", func(t *testing.T) {
		store := newFakeUserStore()
		service := NewOTPService(store, issuer, false, testLogger())

		_, err := service.SendOTP("+85291234567")
		require.NoError(t, err)

		_, err = service.VerifyOTP("+85291234567", "000000")
		assert.Error(t, err, "expected wrong code to fail")
		assert.True(t, errors.Is(err, model.ErrAuthRequired), "expected auth required error")
	})

	t.Run("verify rejects expired code", func(t *testing.T) {
		store := newFakeUserStore()
		service := NewOTPService(store, issuer, false, testLogger())

		challenge, err := service.SendOTP("+85291234567")
		require.NoError(t, err)

		user, err := store.SelectUserByPhone("+85291234567")
		require.NoError(t, err)
		err = store.SetUserOTP(user.ID, *user.OTPCode, time.Now().Add(-time.Minute))
		require.NoError(t, err)

		_, err = service.VerifyOTP("+85291234567", challenge.MockOTP)
		assert.Error(t, err, "expected expired code to fail")
		assert.True(t, errors.Is(err, model.ErrAuthRequired), "expected auth required error")
	})

	t.Run("verify rejects unknown phone number", func(t *testing.T) {
		store := newFakeUserStore()
		service := NewOTPService(store, issuer, true, testLogger())

		_, err := service.VerifyOTP("+85290000000", "123456")
		assert.Error(t, err, "expected unknown phone to fail")
		assert.True(t, errors.Is(err, model.ErrNotFound), "expected not found error")
	})

	t.Run("bypass code accepted only in mvp mode", func(t *testing.T) {
		store := newFakeUserStore()
		mvp := NewOTPService(store, issuer, true, testLogger())
		production := NewOTPService(store, issuer, false, testLogger())

		_, err := mvp.SendOTP("+85291234567")
		require.NoError(t, err)

		session, err := mvp.VerifyOTP("+85291234567", mvpBypassCode)
		assert.NoError(t, err, "expected bypass code accepted in mvp mode")
		assert.True(t, session.MVPBypass, "expected session flagged as bypass")

		_, err = production.VerifyOTP("+85291234567", mvpBypassCode)
		assert.Error(t, err, "expected bypass code rejected outside mvp mode")
	})
}
