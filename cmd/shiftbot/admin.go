package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
	"gorm.io/gorm"

	"github.com/goodjobs/shiftbot/internal/config"
	"github.com/goodjobs/shiftbot/internal/db"
	"github.com/goodjobs/shiftbot/internal/models"
	"github.com/goodjobs/shiftbot/internal/sequence"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Management account commands",
	}

	cmd.AddCommand(newAdminCreateCmd())
	return cmd
}

func newAdminCreateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a management account",
		Long:  "Creates an additional management account. The password is read from the terminal without echo.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminCreate(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "shiftbot.yaml", "path to config file")
	return cmd
}

func runAdminCreate(cmd *cobra.Command, configPath, username string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gormDB, err := db.Connect(cfg.DB)
	if err != nil {
		return err
	}

	var existing models.Applicant
	err = gormDB.Where("line_user_id = ?", username).First(&existing).Error
	if err == nil {
		return fmt.Errorf("account %q already exists", username)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("check account %q: %w", username, err)
	}

	password, err := promptPassword(out)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	n, err := sequence.Next(gormDB, sequence.ScopeUser)
	if err != nil {
		return err
	}
	acct := models.Applicant{
		ID:             sequence.UserID(n),
		LineUserID:     username,
		FullName:       username,
		HashedPassword: string(hash),
		IsAdmin:        true,
		Active:         true,
	}
	if err := gormDB.Create(&acct).Error; err != nil {
		return fmt.Errorf("create account %q: %w", username, err)
	}

	fmt.Fprintf(out, "Created management account %q (%s)\n", username, acct.ID)
	return nil
}

// promptPassword reads the password twice without echo and requires both
// entries to match.
func promptPassword(out io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())

	fmt.Fprint(out, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if len(first) == 0 {
		return "", fmt.Errorf("password must not be empty")
	}

	fmt.Fprint(out, "Confirm password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password confirmation: %w", err)
	}
	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(first), nil
}
