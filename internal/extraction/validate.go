package extraction

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"letraz-jobboard/pkg/models"
	"letraz-jobboard/pkg/utils"
)

// BoardNamePattern restricts board names to registry-style tokens
var BoardNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,31}$`)

// ValidateBoardName is the "board" validation tag
func ValidateBoardName(fl validator.FieldLevel) bool {
	return BoardNamePattern.MatchString(fl.Field().String())
}

// NewValidator returns a validator that reports json field names and knows
// the "board" tag used by ExtractRequest.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("board", ValidateBoardName)
	return v
}

// validateRequest rejects invalid criteria and unknown boards. It runs before
// any network activity.
func (e *Engine) validateRequest(req models.ExtractRequest) error {
	if strings.TrimSpace(req.JobTitle) == "" {
		return utils.NewInvalidCriteriaError("jobTitle must not be empty")
	}
	if err := e.validate.Struct(req); err != nil {
		return utils.NewInvalidCriteriaError(describe(err))
	}
	for _, board := range req.Boards {
		if !e.registry.Has(board) {
			return utils.NewUnsupportedPlatformError(board)
		}
	}
	return nil
}

func (e *Engine) validateCareerPage(req models.CareerPageRequest) error {
	if err := e.validate.Struct(req); err != nil {
		return utils.NewInvalidCriteriaError(describe(err))
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

// normalizeBoards lower-cases board names and drops repeats, keeping order.
// A nil slice stays nil so defaults still apply.
func normalizeBoards(boards []string) []string {
	if boards == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(boards))
	out := make([]string, 0, len(boards))
	for _, b := range boards {
		b = strings.ToLower(strings.TrimSpace(b))
		if _, dup := seen[b]; dup {
			continue
		}
		seen[b] = struct{}{}
		out = append(out, b)
	}
	return out
}
