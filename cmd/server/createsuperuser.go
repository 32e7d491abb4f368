package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"go-online-store/internal/app"
	"go-online-store/internal/event"
	"go-online-store/internal/repository"
	"go-online-store/internal/service"
)

const (
	usernameFlag = "username"
	emailFlag    = "email"
	passwordFlag = "password"
)

var superuserFlags = map[string]cobraflags.Flag{
	usernameFlag: &cobraflags.StringFlag{
		Name:  usernameFlag,
		Value: "",
		Usage: "Username of the staff account (required)",
	},
	emailFlag: &cobraflags.StringFlag{
		Name:  emailFlag,
		Value: "",
		Usage: "Email address of the staff account",
	},
	passwordFlag: &cobraflags.StringFlag{
		Name:  passwordFlag,
		Value: "",
		Usage: "Password; falls back to the SUPERUSER_PASSWORD environment variable",
	},
}

func newCreateSuperuserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create a staff account, or promote an existing one",
		RunE:  runCreateSuperuser,
	}

	cobraflags.RegisterMap(cmd, superuserFlags)
	return cmd
}

func runCreateSuperuser(cmd *cobra.Command, _ []string) error {
	username := strings.TrimSpace(superuserFlags[usernameFlag].GetString())
	email := strings.TrimSpace(superuserFlags[emailFlag].GetString())
	password := superuserFlags[passwordFlag].GetString()
	if password == "" {
		password = os.Getenv("SUPERUSER_PASSWORD")
	}
	if username == "" {
		return fmt.Errorf("--%s is required", usernameFlag)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	db, err := app.OpenDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := db.Migrate("up"); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
	}

	users := service.NewUserService(
		repository.NewUserRepository(db),
		repository.NewTokenRepository(db),
		service.PasswordHasher{Cost: service.DefaultPasswordCost},
		event.NewBus(),
	)

	user, err := users.CreateSuperuser(ctx, username, email, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "staff account %q ready (id %d)\n", user.Username, user.ID)
	return nil
}
