// Package request holds the body and parameter parsing shared by handlers.
package request

import (
	"strings"
	"time"

	"propertyops-backend/internal/pkg/apperr"
	"propertyops-backend/internal/pkg/response"
	"propertyops-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// Date is a calendar date that accepts "2006-01-02" or RFC 3339 in JSON.
type Date struct{ time.Time }

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// ParseDate parses a date-only or RFC 3339 string to UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, err
		}
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// Bind parses the JSON body into dst and runs its validate tags. On failure
// the 400 response has already been written and ok is false.
func Bind(c *fiber.Ctx, dst interface{}) (ok bool, err error) {
	if err := c.BodyParser(dst); err != nil {
		return false, response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	if err := validation.Struct(c.UserContext(), dst); err != nil {
		return false, response.Error(c, "Invalid request body", fiber.StatusBadRequest, validation.Fields(err))
	}
	return true, nil
}

// UUIDParam parses a path parameter. On failure the 400 response has already
// been written and ok is false.
func UUIDParam(c *fiber.Ctx, name string) (id uuid.UUID, ok bool, err error) {
	id, perr := uuid.Parse(c.Params(name))
	if perr != nil {
		return uuid.Nil, false, response.Error(c, "Invalid "+name, fiber.StatusBadRequest, nil)
	}
	return id, true, nil
}

// OptionalUUIDQuery parses an optional query parameter.
func OptionalUUIDQuery(c *fiber.Ctx, name string) (*uuid.UUID, error) {
	s := c.Query(name)
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, apperr.WithMessage(apperr.ErrInvalidRequest, "invalid "+name)
	}
	return &id, nil
}
