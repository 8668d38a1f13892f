package cli

import (
	"github.com/spf13/cobra"
	"github.com/wacspeakers/speakerdir/internal/models"
)

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Reset or change your password",
}

var passwordResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Mail a password reset link",
	Args:  cobra.NoArgs,
	RunE:  runPasswordReset,
}

var passwordConfirmCmd = &cobra.Command{
	Use:   "confirm <uid> <token>",
	Short: "Set a new password from a reset link",
	Long: `Set a new password using the uid and token of a reset link.

Examples:
  speakerdir password confirm MQ 5a1-2f0c9e1d8b7a6c5d4e3f`,
	Args: cobra.ExactArgs(2),
	RunE: runPasswordConfirm,
}

var passwordChangeCmd = &cobra.Command{
	Use:         "change",
	Short:       "Change the password of the signed-in account",
	Args:        cobra.NoArgs,
	Annotations: sessionAnnotations,
	RunE:        runPasswordChange,
}

func init() {
	passwordCmd.AddCommand(passwordResetCmd)
	passwordCmd.AddCommand(passwordConfirmCmd)
	passwordCmd.AddCommand(passwordChangeCmd)
}

func runPasswordReset(cmd *cobra.Command, args []string) error {
	p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
	email, err := p.Line("Email")
	if err != nil {
		return err
	}
	if err := validateForm(struct {
		Email string `validate:"required,email"`
	}{email}); err != nil {
		return err
	}

	accountSvc.OnChange(models.Fields{"email": email})
	return accountSvc.ResetPassword(cmd.Context())
}

func runPasswordConfirm(cmd *cobra.Command, args []string) error {
	form, err := promptNewPassword(cmd, false)
	if err != nil {
		return err
	}
	accountSvc.OnChange(form.Fields())
	return accountSvc.ConfirmResetPassword(cmd.Context(), args[0], args[1])
}

func runPasswordChange(cmd *cobra.Command, args []string) error {
	if err := signedIn(); err != nil {
		return err
	}
	form, err := promptNewPassword(cmd, true)
	if err != nil {
		return err
	}
	accountSvc.OnChange(form.Fields())
	return accountSvc.ChangePassword(cmd.Context())
}

func promptNewPassword(cmd *cobra.Command, withOld bool) (newPasswordForm, error) {
	p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())

	var form newPasswordForm
	var err error
	if withOld {
		if form.OldPassword, err = p.Secret("Current password"); err != nil {
			return form, err
		}
	}
	if form.NewPassword1, err = p.Secret("New password"); err != nil {
		return form, err
	}
	if form.NewPassword2, err = p.Secret("Repeat new password"); err != nil {
		return form, err
	}
	return form, validateForm(form)
}
