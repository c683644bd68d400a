package service

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/gurkanbulca/taskpulse/internal/config"
)

// DefaultValidationConfig returns the limits used when none are configured.
func DefaultValidationConfig() config.ValidationConfig {
	return config.ValidationConfig{
		MaxTitleLength:       200,
		MaxDescriptionLength: 5000,
		MaxNameLength:        100,
		MaxEmailLength:       255,
		MaxCommentLength:     5000,
		MaxTagsLength:        500,
	}
}

// validator collects field problems so a request reports all of them at
// once. Validation never touches storage.
type validator struct {
	limits config.ValidationConfig
	errs   []string
}

func newValidator(limits config.ValidationConfig) *validator {
	return &validator{limits: limits}
}

func (v *validator) addf(format string, args ...any) {
	v.errs = append(v.errs, fmt.Sprintf(format, args...))
}

func (v *validator) err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return validation("%s", strings.Join(v.errs, "; "))
}

func (v *validator) maxLen(field, value string, limit int) {
	if limit > 0 && utf8.RuneCountInString(value) > limit {
		v.addf("%s too long (max %d characters)", field, limit)
	}
}

func (v *validator) title(value string) {
	if strings.TrimSpace(value) == "" {
		v.addf("title is required")
		return
	}
	v.maxLen("title", value, v.limits.MaxTitleLength)
}

func (v *validator) description(value string) {
	v.maxLen("description", value, v.limits.MaxDescriptionLength)
}

func (v *validator) name(field, value string) {
	v.maxLen(field, value, v.limits.MaxNameLength)
}

func (v *validator) tags(value string) {
	v.maxLen("tags", value, v.limits.MaxTagsLength)
}

func (v *validator) email(value string) {
	if value == "" {
		v.addf("email is required")
		return
	}
	if len(value) > v.limits.MaxEmailLength {
		v.addf("email too long (max %d characters)", v.limits.MaxEmailLength)
		return
	}
	if _, err := mail.ParseAddress(value); err != nil {
		v.addf("invalid email format")
	}
}

func (v *validator) hours(field string, value *float64) {
	if value != nil && *value < 0 {
		v.addf("%s must not be negative", field)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultPageSize
	case limit > maxPageSize:
		return maxPageSize
	default:
		return limit
	}
}
