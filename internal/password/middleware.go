package password

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/labstack/echo/v4"
)

// contextKey is the Echo context key the strength result is stored under.
const contextKey = "password_strength"

// CheckStrength returns middleware that scores the password field of a JSON
// body and attaches the result to the request context. It never blocks the
// request: a missing or unreadable body simply skips the scoring.
//
// The body is buffered and restored so downstream binding still works.
func CheckStrength() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil {
				return next(c)
			}

			body, err := io.ReadAll(req.Body)
			req.Body.Close()
			req.Body = io.NopCloser(bytes.NewReader(body))
			if err != nil {
				return next(c)
			}

			// Registration sends "password"; the reset and change flows
			// send "newPassword".
			var payload struct {
				Password    string `json:"password"`
				NewPassword string `json:"newPassword"`
			}
			if err := json.Unmarshal(body, &payload); err == nil {
				if pw := payload.Password; pw != "" {
					c.Set(contextKey, Score(pw))
				} else if pw := payload.NewPassword; pw != "" {
					c.Set(contextKey, Score(pw))
				}
			}

			return next(c)
		}
	}
}

// StrengthFromContext returns the strength attached by CheckStrength, or
// false when the middleware did not run or found no password.
func StrengthFromContext(c echo.Context) (Strength, bool) {
	s, ok := c.Get(contextKey).(Strength)
	return s, ok
}
