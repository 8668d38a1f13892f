package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/wacspeakers/speakerdir/internal/models"
	"github.com/wacspeakers/speakerdir/internal/service"
	"github.com/wacspeakers/speakerdir/internal/tokenstore"
)

var (
	accountSet  []string
	deleteForce bool
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a speaker account",
	Long: `Create a speaker account.

Prompts for email, name and password, then continues with the first step
of the profile flow.`,
	Args: cobra.NoArgs,
	RunE: runRegister,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to your account",
	Args:  cobra.NoArgs,
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:         "logout",
	Short:       "Log out of your account",
	Args:        cobra.NoArgs,
	Annotations: sessionAnnotations,
	RunE:        runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:         "whoami",
	Short:       "Show the signed-in account",
	Args:        cobra.NoArgs,
	Annotations: sessionAnnotations,
	RunE:        runWhoami,
}

var accountCmd = &cobra.Command{
	Use:         "account",
	Short:       "Manage your account",
	Annotations: sessionAnnotations,
}

var accountUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update account and profile fields",
	Long: `Update fields of your account.

Examples:
  speakerdir account update --set first_name=Jane --set last_name=Doe`,
	Args: cobra.NoArgs,
	RunE: runAccountUpdate,
}

var accountDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete your account",
	Long: `Delete your account and sign out.

Requires confirmation unless --force is used.`,
	Args: cobra.NoArgs,
	RunE: runAccountDelete,
}

func init() {
	accountUpdateCmd.Flags().StringArrayVar(&accountSet, "set", nil, "field assignment key=value (repeatable)")
	_ = accountUpdateCmd.MarkFlagRequired("set")
	accountDeleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "skip confirmation")

	accountCmd.AddCommand(accountUpdateCmd)
	accountCmd.AddCommand(accountDeleteCmd)
}

func runRegister(cmd *cobra.Command, args []string) error {
	p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())

	var form registrationForm
	var err error
	if form.Email, err = p.Line("Email"); err != nil {
		return err
	}
	if form.FirstName, err = p.Line("First name"); err != nil {
		return err
	}
	if form.LastName, err = p.Line("Last name"); err != nil {
		return err
	}
	if form.Password1, err = p.Secret("Password"); err != nil {
		return err
	}
	if form.Password2, err = p.Secret("Repeat password"); err != nil {
		return err
	}
	if err := validateForm(form); err != nil {
		return err
	}

	accountSvc.OnChange(form.Fields())
	return accountSvc.Create(cmd.Context())
}

func runLogin(cmd *cobra.Command, args []string) error {
	p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())

	var form loginForm
	var err error
	if form.Email, err = p.Line("Email"); err != nil {
		return err
	}
	if form.Password, err = p.Secret("Password"); err != nil {
		return err
	}
	if err := validateForm(form); err != nil {
		return err
	}

	accountSvc.OnChange(form.Fields())
	return accountSvc.Login(cmd.Context())
}

func runLogout(cmd *cobra.Command, args []string) error {
	if !store.Account().IsAuthenticated {
		fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
		return nil
	}
	return accountSvc.Logout(cmd.Context())
}

func runWhoami(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	record := store.Account()
	if !record.IsAuthenticated {
		fmt.Fprintln(out, "Not logged in.")
		return nil
	}

	fmt.Fprintln(out, defaultTheme.titleStyle().Render(displayName(record.Fields)))
	keys := make([]string, 0, len(record.Fields))
	for k := range record.Fields {
		if k == "profile" || k == "token" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "  %-14s %v\n", k+":", record.Fields[k])
	}

	token, ok, err := tokens.Get(cmd.Context())
	if err != nil || !ok {
		return nil
	}
	claims, err := tokenstore.Inspect(token)
	if err != nil {
		logger.Debug("inspect token failed", "error", err)
		return nil
	}
	if !claims.ExpiresAt.IsZero() {
		fmt.Fprintln(out, defaultTheme.hintStyle().Render(
			fmt.Sprintf("Session expires %s (in %s)", claims.ExpiresAt.Format(time.RFC1123), time.Until(claims.ExpiresAt).Round(time.Minute))))
	}
	return nil
}

func displayName(fields models.Fields) string {
	name := fields.String("first_name")
	if last := fields.String("last_name"); last != "" {
		if name != "" {
			name += " "
		}
		name += last
	}
	if name == "" {
		name = fields.String("email")
	}
	if name == "" {
		name = fields.String("username")
	}
	return name
}

func runAccountUpdate(cmd *cobra.Command, args []string) error {
	fields, err := parseAssignments(accountSet)
	if err != nil {
		return err
	}
	accountSvc.OnChange(fields)
	return accountSvc.Update(cmd.Context())
}

func runAccountDelete(cmd *cobra.Command, args []string) error {
	record := store.Account()
	if record.ID() == "" {
		// Destroy reports the missing session.
		return accountSvc.Destroy(cmd.Context())
	}

	if !deleteForce {
		p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
		ok, err := p.Confirm(fmt.Sprintf("Delete the account of %s?", displayName(record.Fields)))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
	}
	return accountSvc.Destroy(cmd.Context())
}

// signedIn guards commands that need a session.
func signedIn() error {
	if store.Account().IsAuthenticated {
		return nil
	}
	notifier.Notify(service.MsgNotSignedIn)
	return service.ErrReported
}
