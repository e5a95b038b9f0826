package api

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/meqenet/meqenet-back/internal/apierr"
	"github.com/meqenet/meqenet-back/internal/logger"
)

var errInvalidBody = apierr.Validation("invalid_body", "Request body must be valid JSON.")

var jsonNamesOnce sync.Once

// useJSONFieldNames makes validation errors report the JSON field name.
func useJSONFieldNames() {
	jsonNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// fail writes the error body. Internal errors are logged with their cause;
// clients only see the generic message.
func fail(c *gin.Context, log *logger.Logger, err error) {
	status, body := apierr.Response(err)
	if apierr.KindOf(err) == apierr.KindInternal {
		log.Error("Request failed",
			"path", c.FullPath(),
			"request_id", RequestIDFrom(c.Request.Context()),
			"err", err,
		)
	}
	c.AbortWithStatusJSON(status, body)
}

// bindJSON decodes the body into dst. Missing required fields produce a
// missing_fields error naming them.
func bindJSON(c *gin.Context, log *logger.Logger, dst interface{}, missingMessage string) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		fail(c, log, apierr.Validation("missing_fields", missingMessage+" Missing: "+strings.Join(fields, ", ")+"."))
		return false
	}
	fail(c, log, errInvalidBody)
	return false
}
