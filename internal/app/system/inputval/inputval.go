// Package inputval validates decoded request bodies with struct tags and
// turns failures into human-readable messages.
//
//	type registerInput struct {
//	    Username string `validate:"required,username" label:"Username"`
//	    Email    string `validate:"required,email" label:"Email"`
//	}
//	if res := inputval.Validate(in); res.HasErrors() { ... res.First() ... }
package inputval

import (
	"fmt"
	"net/mail"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FieldError is one failed rule on one field.
type FieldError struct {
	Field   string
	Message string
}

// Result collects the failures of one Validate call.
type Result struct {
	Errors []FieldError
}

func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first message, or "".
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message with "; ".
func (r *Result) All() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

var (
	once sync.Once
	v    *validator.Validate

	usernameRE = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,30}$`)
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("email", func(fl validator.FieldLevel) bool {
			return IsValidEmail(fl.Field().String())
		})
		_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
			return IsValidObjectID(fl.Field().String())
		})
		_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernameRE.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("taskstatus", func(fl validator.FieldLevel) bool {
			switch fl.Field().String() {
			case "todo", "in_progress", "done":
				return true
			}
			return false
		})
		_ = v.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
			switch fl.Field().String() {
			case "low", "medium", "high":
				return true
			}
			return false
		})
	})
	return v
}

// Validate runs the struct's validate tags. s must be a struct or pointer
// to struct.
func Validate(s any) *Result {
	res := &Result{}
	err := instance().Struct(s)
	if err == nil {
		return res
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		res.Errors = append(res.Errors, FieldError{Message: err.Error()})
		return res
	}

	t := reflect.TypeOf(s)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	for _, fe := range verrs {
		label := fe.Field()
		if f, ok := t.FieldByName(fe.StructField()); ok {
			if l := f.Tag.Get("label"); l != "" {
				label = l
			}
		}
		res.Errors = append(res.Errors, FieldError{Field: fe.Field(), Message: message(label, fe)})
	}
	return res
}

func message(label string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return label + " is required."
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s may have at most %s entries.", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
	case "email":
		return "A valid email address is required."
	case "objectid":
		return label + " must be a valid id."
	case "username":
		return label + " must be 3-30 characters of letters, digits, '.', '_' or '-'."
	case "taskstatus":
		return label + " must be one of: todo, in_progress, done."
	case "priority":
		return label + " must be one of: low, medium, high."
	case "url", "http_url":
		return label + " must be a valid URL."
	default:
		return label + " is invalid."
	}
}

// IsValidObjectID reports whether s (trimmed) is a 24-hex-digit ObjectID.
func IsValidObjectID(s string) bool {
	_, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	return err == nil
}

// IsValidEmail accepts a bare addr-spec and rejects display-name forms,
// whitespace and misplaced or doubled dots.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	at := strings.LastIndex(s, "@")
	local, domain := s[:at], s[at+1:]
	if local == "" || domain == "" {
		return false
	}
	for _, part := range []string{local, domain} {
		if strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".") || strings.Contains(part, "..") {
			return false
		}
	}
	return true
}
