package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed users.sql
var usersSQL string

//go:embed places.sql
var placesSQL string

// Function lists for verification
var UsersFunctions = []string{
	"init_users",
	"upsert_user_by_phone",
	"select_user",
	"select_user_by_phone",
	"set_user_otp",
	"clear_user_otp",
}

var PlacesFunctions = []string{
	"init_places",
	"insert_place",
	"select_place",
	"select_places_by_owner",
	"update_place_state",
	"delete_place",
	"select_trending_counts",
	"select_external_ids_by_owner",
	"select_owner_ids_with_places",
	"update_place_embedding",
	"select_places_by_similarity",
}

// Init intializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadUsersSql loads user-related SQL functions
func LoadUsersSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, UsersFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing users functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(usersSQL)
	if err != nil {
		return fmt.Errorf("error executing users SQL: %w", err)
	}

	exist, err := checkFunctions(db, UsersFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL users functions loaded successfully")
	return nil
}

// LoadPlacesSql loads place-related SQL functions
func LoadPlacesSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, PlacesFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing places functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(placesSQL)
	if err != nil {
		return fmt.Errorf("error executing places SQL: %w", err)
	}

	exist, err := checkFunctions(db, PlacesFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL places functions loaded successfully")
	return nil
}

// LoadAllSql loads all SQL functions
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadUsersSql(db, force); err != nil {
		return err
	}

	if err := LoadPlacesSql(db, force); err != nil {
		return err
	}

	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
