package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/go-playground/validator/v10"
)

var checker = newChecker()

// newChecker reports fields under their configuration key, taken from the
// key struct tag.
func newChecker() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		if key := field.Tag.Get("key"); key != "" && key != "-" {
			return key
		}
		return strings.ToLower(field.Name)
	})
	return v
}

var comparisons = map[string]string{
	"gt":  ">",
	"gte": ">=",
	"lt":  "<",
	"lte": "<=",
}

// Struct checks v against its validate tags and returns every broken
// rule in a single InvalidArgument error.
func Struct(v any) error {
	err := checker.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("cannot check configuration").
			WithCause(err)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describe(fe))
	}
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg("invalid configuration: " + strings.Join(problems, "; "))
}

func describe(fe validator.FieldError) string {
	key := keyPath(fe)
	if op, ok := comparisons[fe.Tag()]; ok {
		return fmt.Sprintf("%s is %v, must be %s %s", key, fe.Value(), op, fe.Param())
	}
	switch fe.Tag() {
	case "required":
		return key + " is not set"
	case "min":
		return fmt.Sprintf("%s needs at least %s item(s)", key, fe.Param())
	default:
		return fmt.Sprintf("%s breaks rule %q", key, fe.Tag())
	}
}

// keyPath drops the Go type name that leads every namespace, leaving
// e.g. "ssh.ssh_hosts[0].user".
func keyPath(fe validator.FieldError) string {
	if _, rest, ok := strings.Cut(fe.Namespace(), "."); ok {
		return rest
	}
	return fe.Field()
}
