package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/anoixa/dicom-portal/config"
	"github.com/anoixa/dicom-portal/database/models"
	"github.com/anoixa/dicom-portal/internal/app"
	"github.com/anoixa/dicom-portal/internal/auth"
	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage portal accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account (e.g. a hospital or doctor) without the public register endpoint",
	Long: `Create an account directly in the database.

Examples:
  dicom-portal user create --email radiology@clinic.example --name "City Clinic" --role hospital --password '...'
  dicom-portal user create --email dr.lee@clinic.example --name "Dr. Lee" --role doctor --specialty Radiology --password '...'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")
		role, _ := cmd.Flags().GetString("role")
		password, _ := cmd.Flags().GetString("password")
		specialty, _ := cmd.Flags().GetString("specialty")

		container := app.NewContainer(config.Get())
		if err := container.InitDatabase(); err != nil {
			return err
		}
		defer container.Close()

		in := auth.RegisterInput{
			Email:    email,
			Password: password,
			Name:     name,
			Role:     models.Role(role),
		}
		if specialty != "" {
			in.Specialty = &specialty
		}

		user, err := createUser(cmd.Context(), auth.NewAccountService(container.AccountsRepo, nil), in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s account %s (%s)\n", user.Role, user.Email, user.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userCreateCmd)

	userCreateCmd.Flags().String("email", "", "Account email")
	userCreateCmd.Flags().String("name", "", "Display name")
	userCreateCmd.Flags().String("role", string(models.RoleHospital), "Role: patient, doctor or hospital")
	userCreateCmd.Flags().String("password", "", "Initial password")
	userCreateCmd.Flags().String("specialty", "", "Doctor specialty")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("name")
	_ = userCreateCmd.MarkFlagRequired("password")
}

func createUser(ctx context.Context, accounts *auth.AccountService, in auth.RegisterInput) (*models.User, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return accounts.CreateUser(ctx, in)
}
