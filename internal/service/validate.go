package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"event-management-api/internal/model"
)

// check runs the struct tags of v and folds any failure into a
// model.ValidationError carrying msg.
func check(v *validator.Validate, in any, msg string) error {
	err := v.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate input: %w", err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field()))
	}
	return &model.ValidationError{Message: msg, Fields: fields}
}

var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseDatetime accepts RFC 3339 and the common zone-less forms; zone-less
// input is read as UTC.
func parseDatetime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// stamp normalises a time to the precision both store backends keep.
func stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
