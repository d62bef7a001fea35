package validation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"propertyops-backend/internal/pkg/apperr"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Struct validates a request DTO using its `validate` tags.
func Struct(ctx context.Context, v interface{}) error {
	return validate.StructCtx(ctx, v)
}

// Check is Struct with failures converted to apperr.ErrInvalidRequest,
// naming each failing field in the message.
func Check(ctx context.Context, v interface{}) error {
	err := Struct(ctx, v)
	if err == nil {
		return nil
	}
	fields := Fields(err)
	if len(fields) == 0 {
		return apperr.Internal(err)
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s (%s)", name, fields[name]))
	}
	msg := "invalid field(s): " + strings.Join(parts, ", ")
	return apperr.Wrap(apperr.WithMessage(apperr.ErrInvalidRequest, msg), err)
}

// Fields flattens validator errors into field -> rule, for the error details payload.
func Fields(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return out
	}
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule = fmt.Sprintf("%s=%s", rule, fe.Param())
		}
		out[strings.ToLower(fe.Field())] = rule
	}
	return out
}
