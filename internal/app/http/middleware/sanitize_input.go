package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/Pradumn88/lms-college-site-sub000/internal/app/http/respond"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
)

// verbatimFields are hashed or compared, never rendered, so they pass through
// untouched.
var verbatimFields = map[string]struct{}{
	"password":     {},
	"old_password": {},
	"new_password": {},
}

// SanitizeAndCleanInputMiddleware strips HTML from every string in a JSON
// body, nested objects and arrays included. Password fields are kept as sent.
func SanitizeAndCleanInputMiddleware() gin.HandlerFunc {
	policy := bluemonday.StrictPolicy()

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost &&
			c.Request.Method != http.MethodPut &&
			c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}
		if !strings.HasPrefix(c.ContentType(), "application/json") {
			c.Next()
			return
		}

		buf, err := io.ReadAll(c.Request.Body)
		if err != nil {
			respond.BadRequest(c, "Invalid body")
			return
		}
		if len(bytes.TrimSpace(buf)) == 0 {
			c.Request.Body = io.NopCloser(bytes.NewReader(buf))
			c.Next()
			return
		}

		var body interface{}
		if err := json.Unmarshal(buf, &body); err != nil {
			respond.Fail(c, http.StatusBadRequest, "validation_error", "malformed JSON body")
			return
		}

		newBody, err := json.Marshal(sanitize(policy, body))
		if err != nil {
			respond.BadRequest(c, "Invalid body")
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(newBody))
		c.Request.ContentLength = int64(len(newBody))

		c.Next()
	}
}

func sanitize(policy *bluemonday.Policy, v interface{}) interface{} {
	switch t := v.(type) {
	case string:
		return policy.Sanitize(t)
	case map[string]interface{}:
		for k, val := range t {
			if _, ok := verbatimFields[k]; ok {
				continue
			}
			t[k] = sanitize(policy, val)
		}
		return t
	case []interface{}:
		for i, val := range t {
			t[i] = sanitize(policy, val)
		}
		return t
	default:
		return v
	}
}
