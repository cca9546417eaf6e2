// Package intake validates raw order submissions from the intake form.
package intake

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jcmexdev/laundry-intake/internal/laundry/core/domain/entity"
)

// ValidationError names the first field that made a submission unacceptable.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// MaxQuantity caps a single line so totals stay within what the stores hold.
const MaxQuantity = 10000

// ErrNoItems rejects a submission whose quantities are all zero.
var ErrNoItems = &ValidationError{Field: "items", Reason: "please select at least one laundry item"}

// Form carries the submitted fields exactly as received. Field order is the
// order in which problems are reported.
type Form struct {
	Name      string `form:"name" validate:"required"`
	Phone     string `form:"phone" validate:"required"`
	Shirts    string `form:"shirts" validate:"omitempty,quantity"`
	Trousers  string `form:"trousers" validate:"omitempty,quantity"`
	Suits     string `form:"suits" validate:"omitempty,quantity"`
	Bedsheets string `form:"bedsheets" validate:"omitempty,quantity"`
}

// FormFromValues reads the intake fields out of a parsed request form.
// Surrounding whitespace is dropped.
func FormFromValues(v url.Values) Form {
	get := func(key string) string { return strings.TrimSpace(v.Get(key)) }
	return Form{
		Name:      get("name"),
		Phone:     get("phone"),
		Shirts:    get(entity.ItemShirt.FormField()),
		Trousers:  get(entity.ItemTrousers.FormField()),
		Suits:     get(entity.ItemSuit.FormField()),
		Bedsheets: get(entity.ItemBedsheet.FormField()),
	}
}

// Submission is a validated form.
type Submission struct {
	CustomerName string
	PhoneNumber  string
	Quantities   map[entity.ItemType]int
}

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("form"); name != "" {
			return name
		}
		return strings.ToLower(f.Name)
	})
	// quantity is one ordered check per field: digits only, fits an int, at
	// most MaxQuantity.
	_ = v.RegisterValidation("quantity", func(fl validator.FieldLevel) bool {
		_, err := parseQuantity(fl.Field().String())
		return err == nil
	})
	return &Validator{validate: v}
}

var errBadQuantity = errors.New("not a quantity")

func parseQuantity(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, errBadQuantity
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n > MaxQuantity {
		return 0, errBadQuantity
	}
	return n, nil
}

// Validate checks f and converts it into a Submission. A missing quantity
// counts as zero.
func (v *Validator) Validate(f Form) (*Submission, error) {
	if err := v.validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, fieldError(verrs[0])
		}
		return nil, fmt.Errorf("intake: validate form: %w", err)
	}

	raw := []struct {
		t   entity.ItemType
		val string
	}{
		{entity.ItemShirt, f.Shirts},
		{entity.ItemTrousers, f.Trousers},
		{entity.ItemSuit, f.Suits},
		{entity.ItemBedsheet, f.Bedsheets},
	}

	quantities := make(map[entity.ItemType]int, len(raw))
	anyPositive := false
	for _, r := range raw {
		n, err := parseQuantity(r.val)
		if err != nil {
			return nil, &ValidationError{Field: r.t.FormField(), Reason: quantityReason(r.t.FormField())}
		}
		quantities[r.t] = n
		if n > 0 {
			anyPositive = true
		}
	}

	if !anyPositive {
		return nil, ErrNoItems
	}

	return &Submission{
		CustomerName: f.Name,
		PhoneNumber:  f.Phone,
		Quantities:   quantities,
	}, nil
}

func fieldError(fe validator.FieldError) *ValidationError {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return &ValidationError{Field: field, Reason: fmt.Sprintf("%s is required", field)}
	case "quantity":
		return &ValidationError{Field: field, Reason: quantityReason(field)}
	default:
		return &ValidationError{Field: field, Reason: fmt.Sprintf("%s is invalid", field)}
	}
}

func quantityReason(field string) string {
	return fmt.Sprintf("%s must be a whole number from 0 to %d", field, MaxQuantity)
}
