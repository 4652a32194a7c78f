package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Self-Labs/pmes/internal/auth"
	"github.com/Self-Labs/pmes/internal/idgen"
	"github.com/Self-Labs/pmes/internal/model"
	"github.com/Self-Labs/pmes/internal/store/postgres"
)

var (
	adminName   string
	adminEmail  string
	adminUnitID string
)

// createAdminCmd bootstraps the first administrator account directly in the
// database. With no --unit the account is a global admin.
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account directly in the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		databaseURL := os.Getenv("PMES_DATABASE_URL")
		if databaseURL == "" {
			return fmt.Errorf("PMES_DATABASE_URL is required")
		}
		if adminEmail == "" || adminName == "" {
			return fmt.Errorf("--email and --name are required")
		}

		password, err := promptPassword()
		if err != nil {
			return err
		}
		if err := model.ValidatePassword(password); err != nil {
			return err
		}

		store, err := postgres.New(databaseURL)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		email := strings.ToLower(strings.TrimSpace(adminEmail))
		if _, err := store.GetUserByEmail(ctx, email); err == nil {
			return fmt.Errorf("email %s already registered", email)
		} else if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		var unitID *string
		if adminUnitID != "" {
			if _, err := store.GetUnit(ctx, adminUnitID); err != nil {
				return fmt.Errorf("unit %s: %w", adminUnitID, err)
			}
			unitID = &adminUnitID
		}

		id, err := idgen.Generate(idgen.PrefixUser)
		if err != nil {
			return err
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		user := &model.User{
			ID:           id,
			Name:         strings.TrimSpace(adminName),
			Email:        email,
			PasswordHash: hash,
			Role:         model.RoleAdmin,
			UnitID:       unitID,
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := model.ValidateUser(user); err != nil {
			return err
		}
		if err := store.CreateUser(ctx, user); err != nil {
			return err
		}

		scope := "global"
		if unitID != nil {
			scope = *unitID
		}
		fmt.Printf("admin %s created (%s, scope: %s)\n", user.Email, user.ID, scope)
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminName, "name", "", "display name")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "login email")
	createAdminCmd.Flags().StringVar(&adminUnitID, "unit", "", "bind the admin to a unit (default: global scope)")
}

// promptPassword reads the password twice without echo when stdin is a
// terminal, or a single line otherwise (for scripted bootstrap).
func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Print("Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	fmt.Print("Confirm password: ")
	second, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(first), nil
}
