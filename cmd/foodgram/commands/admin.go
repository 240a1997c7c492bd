package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmynk/foodgram/internal/auth"
	"github.com/mmynk/foodgram/internal/models"
	"github.com/mmynk/foodgram/internal/storage"
	"github.com/mmynk/foodgram/internal/validation"
)

// adminPasswordEnv may hold the password instead of the --password flag.
const adminPasswordEnv = "FOODGRAM_ADMIN_PASSWORD"

var adminUser struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150,username"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,max=150"`
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account or promote an existing one",
	Long: `Create an administrator account. When a user with the given email
already exists, it is promoted to the admin role and its password is left
unchanged.

Examples:
  foodgram create-admin --email chef@example.com --username chef --password s3cret
  FOODGRAM_ADMIN_PASSWORD=s3cret foodgram create-admin --email chef@example.com --username chef`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCreateAdmin(cmd)
	},
}

func init() {
	rootCmd.AddCommand(createAdminCmd)

	createAdminCmd.Flags().StringVar(&adminUser.Email, "email", "", "Email address (required)")
	createAdminCmd.Flags().StringVar(&adminUser.Username, "username", "", "Username (required)")
	createAdminCmd.Flags().StringVar(&adminUser.FirstName, "first-name", "Admin", "First name")
	createAdminCmd.Flags().StringVar(&adminUser.LastName, "last-name", "Admin", "Last name")
	createAdminCmd.Flags().StringVar(&adminUser.Password, "password", "", "Password (or $"+adminPasswordEnv+")")
	_ = createAdminCmd.MarkFlagRequired("email")
}

func runCreateAdmin(cmd *cobra.Command) error {
	if adminUser.Password == "" {
		adminUser.Password = os.Getenv(adminPasswordEnv)
	}

	_, store, logger, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()
	ctx := cmd.Context()

	user, err := store.GetUserByEmail(ctx, adminUser.Email)
	switch {
	case err == nil:
		logger.Info("Promoting existing user", "user_id", user.ID)
	case errors.Is(err, storage.ErrNotFound):
		if err := validation.ValidateStruct(&adminUser); err != nil {
			return err
		}
		user, err = auth.NewPasswordAuthenticator(store).Register(ctx, auth.Registration{
			Email:     adminUser.Email,
			Username:  adminUser.Username,
			FirstName: adminUser.FirstName,
			LastName:  adminUser.LastName,
		}, adminUser.Password)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
	default:
		return err
	}

	if err := store.UpdateRole(ctx, user.ID, models.RoleAdmin); err != nil {
		return fmt.Errorf("failed to grant admin role: %w", err)
	}
	cmd.Printf("%s (id %d) is now an admin\n", user.Email, user.ID)
	return nil
}
