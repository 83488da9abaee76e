package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Coding-Kitties-Club/GameSwipe/internal/model"
)

// requestValidator はgo-playground/validatorをラップし、検証失敗を
// フィールド単位のdetails付きINVALID_REQUESTエラーに変換する。
type requestValidator struct {
	v *validator.Validate
}

// newRequestValidator はrequestValidatorを生成する。
func newRequestValidator() *requestValidator {
	return &requestValidator{v: validator.New()}
}

// fieldDetail は1フィールドの検証失敗内容。
type fieldDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validate は構造体タグに基づいてリクエストボディを検証する。
// 失敗時はフィールド単位の詳細を持つINVALID_REQUESTエラーを返す。
func (rv *requestValidator) Validate(i any) error {
	err := rv.v.Struct(i)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		details := make([]fieldDetail, 0, len(ve))
		for _, fe := range ve {
			details = append(details, fieldDetail{
				Field:   strings.ToLower(fe.Field()[:1]) + fe.Field()[1:],
				Message: fieldErrorMessage(fe),
			})
		}
		return model.NewInvalidRequestError(details)
	}

	return model.NewInvalidRequestError(nil)
}

// fieldErrorMessage は1件のValidationErrorを人間可読なメッセージに変換する。
func fieldErrorMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "numeric":
		return field + " must contain only digits"
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
