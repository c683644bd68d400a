package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gurkanbulca/taskpulse/internal/models"
	"github.com/gurkanbulca/taskpulse/internal/service"
)

type userFlags struct {
	password  string
	firstName string
	lastName  string
	role      string
}

func (f *userFlags) register(cmd *cobra.Command, withRole bool) {
	cmd.Flags().StringVarP(&f.password, "password", "p", "", "initial password (required)")
	cmd.Flags().StringVar(&f.firstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&f.lastName, "last-name", "", "last name")
	if withRole {
		cmd.Flags().StringVarP(&f.role, "role", "r", string(models.RoleUser), "role: user, manager or admin")
	}
	_ = cmd.MarkFlagRequired("password")
}

func createAdminCmd(open opener) *cobra.Command {
	var flags userFlags
	cmd := &cobra.Command{
		Use:   "create-admin [email]",
		Short: "Create an administrator account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.role = string(models.RoleAdmin)
			return createUser(cmd, open, args[0], flags)
		},
	}
	flags.register(cmd, false)
	return cmd
}

func createUserCmd(open opener) *cobra.Command {
	var flags userFlags
	cmd := &cobra.Command{
		Use:   "create-user [email]",
		Short: "Create a user account with the given role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return createUser(cmd, open, args[0], flags)
		},
	}
	flags.register(cmd, true)
	return cmd
}

func createUser(cmd *cobra.Command, open opener, emailAddr string, flags userFlags) error {
	return withUsers(cmd, open, func(ctx context.Context, users *service.UserService) error {
		user, err := users.CreateUser(ctx, service.CreateUserInput{
			Email:     emailAddr,
			Password:  flags.password,
			FirstName: flags.firstName,
			LastName:  flags.lastName,
			Role:      flags.role,
		})
		if err != nil {
			return cliError(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (%s)\n", user.Role, user.Email, user.ID)
		return nil
	})
}

func promoteUserCmd(open opener) *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "promote-user [email]",
		Short: "Change a user's role (admin by default)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsers(cmd, open, func(ctx context.Context, users *service.UserService) error {
				user, err := users.SetRoleByEmail(ctx, args[0], role)
				if err != nil {
					return cliError(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Email, user.Role)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&role, "role", "r", string(models.RoleAdmin), "target role")
	return cmd
}

func listUsersCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "list-users",
		Short: "List every account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withUsers(cmd, open, func(ctx context.Context, users *service.UserService) error {
				list, err := users.ListAllUsers(ctx)
				if err != nil {
					return cliError(err)
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "EMAIL\tNAME\tROLE\tACTIVE\tCREATED")
				for _, u := range list {
					fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n",
						u.Email, u.FullName(), u.Role, u.IsActive, u.CreatedAt.Format("2006-01-02"))
				}
				return w.Flush()
			})
		},
	}
}

func deactivateUserCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate-user [email]",
		Short: "Disable a user's login",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsers(cmd, open, func(ctx context.Context, users *service.UserService) error {
				user, err := users.DeactivateByEmail(ctx, args[0])
				if err != nil {
					return cliError(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deactivated %s\n", user.Email)
				return nil
			})
		},
	}
}

func resetPasswordCmd(open opener) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "reset-password [email]",
		Short: "Set a new password without the current one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsers(cmd, open, func(ctx context.Context, users *service.UserService) error {
				if err := users.ResetPassword(ctx, args[0], password); err != nil {
					return cliError(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Password reset for %s\n", args[0])
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "new password (required)")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// cliError keeps the service's public message and leaves storage failures
// intact so the operator sees the cause.
func cliError(err error) error {
	if service.KindOf(err) == service.KindStorage {
		return err
	}
	return errors.New(service.PublicMessage(err))
}
