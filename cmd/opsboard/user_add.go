package main

import (
	"context"
	"fmt"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"opsboard/internal/auth"
	"opsboard/internal/config"
	"opsboard/internal/models"
	"opsboard/internal/store"
)

func newUserAddCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var role string
	var displayName string
	var email string
	var agency string
	var password string

	cmd := &cobra.Command{
		Use:   "user-add <username>",
		Short: "Create a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username, err := auth.NormalizeUsername(args[0])
			if err != nil {
				return err
			}
			parsedRole, err := models.ParseRole(role)
			if err != nil {
				return err
			}

			if password == "" {
				password, err = promptPassword()
				if err != nil {
					return err
				}
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}

			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			now := time.Now().UTC()
			user := &models.User{
				ID:           uuid.NewString(),
				Username:     username,
				DisplayName:  strings.TrimSpace(displayName),
				Email:        strings.TrimSpace(email),
				Role:         parsedRole,
				Agency:       strings.TrimSpace(agency),
				Active:       true,
				PasswordHash: hash,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := st.CreateUser(context.Background(), user); err != nil {
				return fmt.Errorf("create user: %w", err)
			}

			if *jsonOutput {
				return writeJSON(user)
			}
			fmt.Printf("Created user %s (%s) with role %s\n", user.Username, user.ID, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", string(models.RoleStaff), "user role: staff, director or admin")
	cmd.Flags().StringVar(&displayName, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address for notification delivery")
	cmd.Flags().StringVar(&agency, "agency", "", "agency the user belongs to")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")

	return cmd
}

func promptPassword() (string, error) {
	fmt.Print("Password: ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
