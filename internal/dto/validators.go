package dto

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/talkal/home_finance_app/internal/core/domain"
)

// RegisterCustomValidators hooks domain-specific validations into gin's
// binding validator. Call once at startup, before routes are served.
func RegisterCustomValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("duplicatedecision", validDuplicateDecision)
}

func validDuplicateDecision(fl validator.FieldLevel) bool {
	switch domain.DuplicateDecision(fl.Field().String()) {
	case domain.DecisionImport, domain.DecisionSkip, domain.DecisionReplace:
		return true
	}
	return false
}
