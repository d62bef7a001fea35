package request

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2024-01-31T23:30:00-05:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("31/01/2024")
	assert.Error(t, err)
}

func TestDate_JSON(t *testing.T) {
	var body struct {
		Start Date `json:"start"`
		End   Date `json:"end"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"start":"2024-03-01","end":null}`), &body))
	assert.Equal(t, 2024, body.Start.Year())
	assert.True(t, body.End.IsZero())

	b, err := json.Marshal(body.Start)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-01"`, string(b))
}

type bindBody struct {
	UnitID string `json:"unit_id" validate:"required,uuid"`
}

func TestBindAndParams(t *testing.T) {
	app := fiber.New()
	app.Post("/units/:id", func(c *fiber.Ctx) error {
		id, ok, err := UUIDParam(c, "id")
		if !ok {
			return err
		}
		var body bindBody
		if ok, err := Bind(c, &body); !ok {
			return err
		}
		return c.JSON(fiber.Map{"id": id, "unit_id": body.UnitID})
	})

	post := func(path, body string) int {
		req := httptest.NewRequest("POST", path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}
	good := `{"unit_id":"6f1c0a8e-3b9e-4a53-9d0e-2f5a7c1b9e11"}`
	assert.Equal(t, fiber.StatusOK, post("/units/6f1c0a8e-3b9e-4a53-9d0e-2f5a7c1b9e11", good))
	assert.Equal(t, fiber.StatusBadRequest, post("/units/abc", good))
	assert.Equal(t, fiber.StatusBadRequest, post("/units/6f1c0a8e-3b9e-4a53-9d0e-2f5a7c1b9e11", `{"unit_id":"nope"}`))
	assert.Equal(t, fiber.StatusBadRequest, post("/units/6f1c0a8e-3b9e-4a53-9d0e-2f5a7c1b9e11", `{`))
}
