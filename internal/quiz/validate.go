package quiz

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// MaxNameLength bounds participant display names, in runes.
const MaxNameLength = 64

type questionInput struct {
	Text          string   `validate:"required"`
	Options       []string `validate:"len=4,dive,required"`
	CorrectAnswer string   `validate:"required"`
}

type joinInput struct {
	Name string `validate:"required,max=64"`
}

// fieldNames maps struct fields to the names used in error messages.
var fieldNames = map[string]string{
	"Text":          "question",
	"Options":       "options",
	"CorrectAnswer": "correctAnswer",
	"Name":          "name",
}

func validateQuestion(text string, options []string, correctAnswer string) error {
	in := questionInput{
		Text:          strings.TrimSpace(text),
		Options:       options,
		CorrectAnswer: correctAnswer,
	}
	if err := validate.Struct(in); err != nil {
		return toValidationError(err)
	}
	for _, o := range options {
		if o == correctAnswer {
			return nil
		}
	}
	return invalid("correctAnswer", "must equal one of the options")
}

func validateName(name string) (string, error) {
	in := joinInput{Name: strings.TrimSpace(name)}
	if err := validate.Struct(in); err != nil {
		return "", toValidationError(err)
	}
	return in.Name, nil
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return invalid("", err.Error())
	}
	fe := verrs[0]
	field := fieldNames[fe.StructField()]
	if strings.HasPrefix(fe.StructNamespace(), "questionInput.Options[") {
		field = "options"
	}

	switch fe.Tag() {
	case "required":
		if field == "options" {
			return invalid(field, "every option must be non-empty")
		}
		return invalid(field, "is required")
	case "len":
		return invalid(field, "exactly 4 options are required")
	case "max":
		return invalid(field, "is too long")
	default:
		return invalid(field, "is invalid")
	}
}
