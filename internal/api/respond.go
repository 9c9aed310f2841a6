package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"arcade-inventory-backend/internal/logger"
)

const maxFormMemory = 1 << 20

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

func notFound(c *gin.Context, what string) {
	c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": what + " not found"})
}

// serverError logs the cause and answers with a generic message.
func (h *Handler) serverError(c *gin.Context, msg string, err error) {
	logger.FromContext(c.Request.Context()).Error(msg, zap.Error(err))
	c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": msg})
}

// lookupFailed answers 404 for missing rows and 500 for anything else.
func (h *Handler) lookupFailed(c *gin.Context, what, msg string, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		notFound(c, what)
		return
	}
	h.serverError(c, msg, err)
}

func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "Invalid "+strings.ReplaceAll(name, "_", " "))
		return 0, false
	}
	return uint(id), true
}

func isJSON(r *http.Request) bool {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return ct == "application/json"
}

// formValues reads the request body as flat key/value pairs whether it was
// posted as a form, a multipart form or a JSON object. JSON booleans and
// numbers are rendered as their text; arrays become repeated values.
func formValues(r *http.Request) (url.Values, error) {
	if isJSON(r) {
		var body map[string]any
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil {
			return nil, fmt.Errorf("invalid JSON body: %w", err)
		}
		values := url.Values{}
		for k, v := range body {
			switch t := v.(type) {
			case nil:
			case []any:
				for _, item := range t {
					values.Add(k, fmt.Sprint(item))
				}
			default:
				values.Set(k, fmt.Sprint(t))
			}
		}
		return values, nil
	}

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			return nil, fmt.Errorf("invalid form: %w", err)
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("invalid form: %w", err)
	}
	return r.PostForm, nil
}

func formBool(v url.Values, key string) bool {
	switch strings.ToLower(strings.TrimSpace(v.Get(key))) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

func formString(v url.Values, key string) string {
	return strings.TrimSpace(v.Get(key))
}
