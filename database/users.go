package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	dbsql "database/sql"

	"github.com/radarhk/radar/helper"
	"github.com/radarhk/radar/model"
	"github.com/radarhk/radar/sql"
)

// UsersDBHandlerFunctions defines the interface for Users database operations.
type UsersDBHandlerFunctions interface {
	UpsertUserByPhone(user *model.User) error
	SelectUser(id int64) (*model.User, error)
	SelectUserByPhone(phoneNumber string) (*model.User, error)
	SetUserOTP(id int64, code string, expiresAt time.Time) error
	ClearUserOTP(id int64) error
}

// UsersDBHandler handles user-related database operations
type UsersDBHandler struct {
	db *helper.Database
}

// NewUsersDBHandler creates a new users database handler.
// It initializes the database connection and loads user-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewUsersDBHandler(db *helper.Database, force bool) (*UsersDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	usersDbHandler := &UsersDBHandler{
		db: db,
	}

	err := sql.LoadUsersSql(usersDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load users sql", err)
	}

	err = usersDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized UsersDBHandler")

	return usersDbHandler, nil
}

// CreateTable creates the 'users' table in the database.
// If the table already exists, it does not create it again.
func (h *UsersDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_users();`)
	if err != nil {
		log.Panicf("error initializing users table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table users")

	return nil
}

// UpsertUserByPhone inserts a user for the phone number or returns the existing one
func (h *UsersDBHandler) UpsertUserByPhone(user *model.User) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM upsert_user_by_phone($1)`,
		user.PhoneNumber,
	)

	err := row.Scan(
		&user.ID,
		&user.PhoneNumber,
		&user.OTPCode,
		&user.OTPExpires,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectUser retrieves a user by ID
func (h *UsersDBHandler) SelectUser(id int64) (*model.User, error) {
	user := &model.User{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_user($1)`,
		id,
	)

	err := row.Scan(
		&user.ID,
		&user.PhoneNumber,
		&user.OTPCode,
		&user.OTPExpires,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, dbsql.ErrNoRows) {
			return nil, helper.NewError("select user", model.ErrNotFound)
		}
		return nil, helper.NewError("scan", err)
	}

	return user, nil
}

// SelectUserByPhone retrieves a user by phone number
func (h *UsersDBHandler) SelectUserByPhone(phoneNumber string) (*model.User, error) {
	user := &model.User{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_user_by_phone($1)`,
		phoneNumber,
	)

	err := row.Scan(
		&user.ID,
		&user.PhoneNumber,
		&user.OTPCode,
		&user.OTPExpires,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, dbsql.ErrNoRows) {
			return nil, helper.NewError("select user by phone", model.ErrNotFound)
		}
		return nil, helper.NewError("scan", err)
	}

	return user, nil
}

// SetUserOTP stores a pending OTP code with its expiry
func (h *UsersDBHandler) SetUserOTP(id int64, code string, expiresAt time.Time) error {
	_, err := h.db.Instance.Exec(
		`SELECT set_user_otp($1, $2, $3)`,
		id,
		code,
		expiresAt,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// ClearUserOTP removes a consumed or expired OTP code
func (h *UsersDBHandler) ClearUserOTP(id int64) error {
	_, err := h.db.Instance.Exec(
		`SELECT clear_user_otp($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
