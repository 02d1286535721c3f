package main

import (
	"errors"
	"strings"

	authzcommands "ccdepot/contexts/identity-access/authorization-service/application/commands"

	"github.com/spf13/cobra"
)

// bootstrapAdminID is recorded as assigned_by for bootstrap grants without --user.
const bootstrapAdminID = "ccctl-bootstrap"

func (c *cli) newAuthzCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authz",
		Short: "Manage role assignments",
	}
	cmd.AddCommand(c.newAuthzGrant(), c.newAuthzRoles())
	return cmd
}

func (c *cli) newAuthzGrant() *cobra.Command {
	var (
		bootstrap bool
		reason    string
	)
	cmd := &cobra.Command{
		Use:   "grant USER_ID ROLE_ID",
		Short: "Grant a role to a user",
		Long: "Grant ROLE_ID to USER_ID as --user. With --bootstrap the admin check is\n" +
			"skipped, which is how the first admin gets created.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			grant := c.rt.Authorization.GrantRole
			grant.Bootstrap = bootstrap
			adminID := strings.TrimSpace(c.actorID)
			switch {
			case adminID == "" && bootstrap:
				adminID = bootstrapAdminID
			case adminID == "":
				return errors.New("--user is required unless --bootstrap is set")
			}
			result, err := grant.Execute(cmd.Context(), authzcommands.GrantRoleCommand{
				UserID:  args[0],
				RoleID:  args[1],
				AdminID: adminID,
				Reason:  reason,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().BoolVar(&bootstrap, "bootstrap", false, "Skip the authz.manage check")
	cmd.Flags().StringVar(&reason, "reason", "", "Audit reason")
	return cmd
}

func (c *cli) newAuthzRoles() *cobra.Command {
	return &cobra.Command{
		Use:   "roles USER_ID",
		Short: "List the active roles of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := c.rt.Authorization.Handler.ListUserRolesHandler(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
}
