package validation

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// MinPasswordLength is the shortest accepted password, counted in runes.
const MinPasswordLength = 6

var (
	engineOnce sync.Once
	engine     *validator.Validate
)

// Engine returns the shared validator with the custom "strongpwd" tag.
func Engine() *validator.Validate {
	engineOnce.Do(func() {
		engine = validator.New()
		register(engine)
	})
	return engine
}

// Init registers the custom tags on Gin's binding validator as well, so
// request structs can use `binding:"strongpwd"`.
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		register(v)
	}
}

func register(v *validator.Validate) {
	_ = v.RegisterValidation("strongpwd", func(fl validator.FieldLevel) bool {
		return isStrongPassword(fl.Field().String())
	})
}

// passwordSymbols is the set of characters that count as a symbol. Letters
// and digits count only in their ASCII ranges.
const passwordSymbols = "-#!$@£%^&*()_+|~=`{}[]:\";'<>?,./\\ "

func isStrongPassword(p string) bool {
	if utf8.RuneCountInString(p) < MinPasswordLength {
		return false
	}
	var upper, lower, digit, symbol bool
	for _, r := range p {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}

// ToDetails converts binding errors into a map[field]message suitable for API error details.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		return map[string]string{"payload": "invalid json"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = "failed on " + fe.Tag()
		}
		return out
	}

	return map[string]string{"payload": "invalid payload"}
}
