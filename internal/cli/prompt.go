package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/wacspeakers/speakerdir/internal/models"
	"golang.org/x/term"
)

// prompter asks for form values. Secrets are read without echo when the
// input is a terminal.
type prompter struct {
	in     *bufio.Reader
	out    io.Writer
	fd     int
	isTerm bool
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
		p.isTerm = true
	}
	return p
}

// Line asks for one line of input.
func (p *prompter) Line(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

// Secret asks for a password.
func (p *prompter) Secret(label string) (string, error) {
	if !p.isTerm {
		return p.Line(label)
	}
	fmt.Fprintf(p.out, "%s: ", label)
	secret, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return string(secret), nil
}

// Confirm asks a yes/no question; anything but y or yes is no.
func (p *prompter) Confirm(question string) (bool, error) {
	answer, err := p.Line(question + " [y/N]")
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

// =============================================================================
// FORMS
// =============================================================================

var formValidate = validator.New(validator.WithRequiredStructEnabled())

type registrationForm struct {
	Email     string `validate:"required,email"`
	FirstName string `validate:"required"`
	LastName  string `validate:"required"`
	Password1 string `validate:"required,min=8"`
	Password2 string `validate:"eqfield=Password1"`
}

func (f registrationForm) Fields() models.Fields {
	return models.Fields{
		"email":      f.Email,
		"first_name": f.FirstName,
		"last_name":  f.LastName,
		"password1":  f.Password1,
		"password2":  f.Password2,
		"page":       "account",
	}
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

func (f loginForm) Fields() models.Fields {
	return models.Fields{"email": f.Email, "password": f.Password}
}

type newPasswordForm struct {
	OldPassword  string
	NewPassword1 string `validate:"required,min=8"`
	NewPassword2 string `validate:"eqfield=NewPassword1"`
}

func (f newPasswordForm) Fields() models.Fields {
	fields := models.Fields{
		"new_password1": f.NewPassword1,
		"new_password2": f.NewPassword2,
	}
	if f.OldPassword != "" {
		fields["old_password"] = f.OldPassword
	}
	return fields
}

// formLabels name struct fields as the prompts do.
var formLabels = map[string]string{
	"Email":        "email",
	"FirstName":    "first name",
	"LastName":     "last name",
	"Password":     "password",
	"Password1":    "password",
	"Password2":    "password confirmation",
	"NewPassword1": "new password",
	"NewPassword2": "new password confirmation",
}

// validateForm checks form locally before anything is sent to the Gateway.
func validateForm(form any) error {
	err := formValidate.Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate form: %w", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		label := formLabels[fe.Field()]
		if label == "" {
			label = fe.Field()
		}
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, label+" is required")
		case "email":
			msgs = append(msgs, label+" is not a valid address")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s needs at least %s characters", label, fe.Param()))
		case "eqfield":
			msgs = append(msgs, label+" does not match")
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %q", label, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// parseAssignments turns repeated key=value flags into fields. Values that
// look like booleans are sent as booleans.
func parseAssignments(pairs []string) (models.Fields, error) {
	fields := make(models.Fields, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q, want key=value", pair)
		}
		switch value {
		case "true":
			fields[key] = true
		case "false":
			fields[key] = false
		default:
			fields[key] = value
		}
	}
	return fields, nil
}
