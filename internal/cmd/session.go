package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jrsteele09/spares-console/format"
	"github.com/jrsteele09/spares-console/guard"
	"github.com/jrsteele09/spares-console/server/loginsession"
	"github.com/jrsteele09/spares-console/users"
	"github.com/spf13/cobra"
)

var errNotLoggedIn = errors.New("not logged in, run console login first")

func newLoginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the marketplace API",
		Long: `Sign in with an email and password. The password is read from the first
line of stdin when --password is not given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				var err error
				if password, err = readLine(cmd.InOrStdin()); err != nil {
					return fmt.Errorf("read password: %w", err)
				}
			}
			return withConsole(cmd, func(cs *loginsession.Session) error {
				if r := cs.Store.Login(cmd.Context(), email, password); !r.Success {
					return r.Err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", cs.Store.UserName())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withConsole(cmd, func(cs *loginsession.Session) error {
				if r := cs.Store.Logout(cmd.Context()); !r.Success {
					return r.Err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
				return nil
			})
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in user",
		Long:  `Show the signed in user, their organisation, roles and permissions.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withConsole(cmd, func(cs *loginsession.Session) error {
				if !cs.Store.HasToken() {
					return errNotLoggedIn
				}
				if r := cs.Store.FetchUser(cmd.Context(), refresh); !r.Success {
					return r.Err
				}
				printUser(cmd.OutOrStdout(), cs)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "refetch the user even when the cached copy is fresh")
	return cmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <path>",
		Short: "Run the navigation guard for a path",
		Long: `Resolve path against the route table and run the navigation guard for it,
printing whether the navigation is allowed or where it is redirected.`,
		Example: `  console check /parts
  console check /vendors/12/parts`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConsole(cmd, func(cs *loginsession.Session) error {
				to, d := cs.Guard.Navigate(cmd.Context(), args[0])
				printDecision(cmd.OutOrStdout(), to, d)
				return nil
			})
		},
	}
}

func newSwitchOrgCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "switch-org <id>",
		Short: "Make one of your organisations current",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConsole(cmd, func(cs *loginsession.Session) error {
				if !cs.Store.HasToken() {
					return errNotLoggedIn
				}
				if r := cs.Store.FetchUser(cmd.Context(), false); !r.Success {
					return r.Err
				}
				if r := cs.Store.SwitchOrganisationByID(cmd.Context(), users.ID(args[0])); !r.Success {
					return r.Err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Current organisation: %s\n", organisationLabel(cs.Store.User().CurrentOrganisation))
				return nil
			})
		},
	}
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func printUser(out io.Writer, cs *loginsession.Session) {
	u := cs.Store.User()
	if u == nil {
		return
	}
	fmt.Fprintf(out, "Name:         %s\n", u.DisplayName())
	fmt.Fprintf(out, "Email:        %s\n", u.Email)
	fmt.Fprintf(out, "Organisation: %s\n", organisationLabel(u.CurrentOrganisation))
	fmt.Fprintf(out, "Roles:        %s\n", joinNames(u.RoleList()))
	fmt.Fprintf(out, "Permissions:  %s\n", joinNames(u.PermissionList()))

	if exp, ok, err := cs.Store.TokenExpiry(); err == nil && ok {
		fmt.Fprintf(out, "Token expiry: %s\n", format.DateTime(exp.Format(time.RFC3339)))
	}
}

func printDecision(out io.Writer, to guard.Location, d guard.Decision) {
	route := to.Name
	if route == "" {
		route = "unnamed"
	}
	if d.Allow {
		fmt.Fprintf(out, "allow %s (%s)\n", to.Path, route)
		return
	}
	fmt.Fprintf(out, "redirect %s (%s) -> %s: %s\n", to.Path, route, d.Redirect, d.Reason)
}

func organisationLabel(org *users.Organisation) string {
	if org == nil {
		return "none"
	}
	if org.OrganisationName == "" {
		return org.OrganisationID.String()
	}
	return fmt.Sprintf("%s (%s)", org.OrganisationName, org.OrganisationID)
}

type named interface {
	Desc() string
}

func joinNames[T named](items []T) string {
	if len(items) == 0 {
		return "none"
	}
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Desc())
	}
	return strings.Join(names, ", ")
}
