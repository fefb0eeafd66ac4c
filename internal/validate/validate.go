package validate

import (
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/baharkarakas/blog-backend/internal/apperr"
)

var v = validator.New()

type ErrField struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

type Errs []ErrField

func (e Errs) Error() string { // error interface
	var b strings.Builder
	for i, ef := range e {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(ef.Field + ": " + ef.Msg)
	}
	return b.String()
}

// Messages returns the human readable message of each violation.
func (e Errs) Messages() []string {
	out := make([]string, len(e))
	for i, ef := range e {
		out[i] = ef.Msg
	}
	return out
}

// Err turns the collected violations into a validation error, or nil.
func (e Errs) Err(msg string) error {
	if len(e) == 0 {
		return nil
	}
	if msg == "" {
		msg = strings.Join(e.Messages(), ", ")
	}
	return apperr.Validation(msg, []ErrField(e))
}

// Collect keeps the non-nil results so every violated rule is reported.
func Collect(checks ...*ErrField) Errs {
	var out Errs
	for _, c := range checks {
		if c != nil {
			out = append(out, *c)
		}
	}
	return out
}

// Helpers
func Required(field, label, value string) *ErrField {
	if strings.TrimSpace(value) == "" {
		return &ErrField{Field: field, Msg: label + " is required"}
	}
	return nil
}

func MaxLen(field, label, value string, max int) *ErrField {
	if utf8.RuneCountInString(value) > max {
		return &ErrField{Field: field, Msg: label + " must be at most " + strconv.Itoa(max) + " characters"}
	}
	return nil
}

// MaxBytes guards inputs with a byte limit, such as bcrypt's 72 bytes.
func MaxBytes(field, label, value string, max int) *ErrField {
	if len(value) > max {
		return &ErrField{Field: field, Msg: label + " must be at most " + strconv.Itoa(max) + " bytes"}
	}
	return nil
}

func Email(field, value string) *ErrField {
	if value == "" {
		return nil
	}
	if err := v.Var(value, "email"); err != nil {
		return &ErrField{Field: field, Msg: "Invalid email format"}
	}
	return nil
}

func OneOf(field, label, value string, allowed []string) *ErrField {
	if value == "" {
		return nil
	}
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &ErrField{Field: field, Msg: "Invalid " + strings.ToLower(label) + ". Allowed: " + strings.Join(allowed, ", ")}
}

// HTTPURL accepts only absolute http(s) URLs.
func HTTPURL(field, label, value string) *ErrField {
	if value == "" {
		return nil
	}
	u, err := url.ParseRequestURI(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ErrField{Field: field, Msg: label + " must be an absolute http(s) URL"}
	}
	return nil
}
