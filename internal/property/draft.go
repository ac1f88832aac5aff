package property

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Draft is the editable, text-only form of a property. One draft exists per
// open create or edit session and is never persisted locally.
type Draft struct {
	Title             string `json:"title" validate:"notblank"`
	Location          string `json:"location" validate:"notblank"`
	Price             string `json:"price" validate:"notblank,positive"`
	SquareFeet        string `json:"square_feet" validate:"notblank,count"`
	YearBuilt         string `json:"year_built" validate:"notblank,year"`
	Description       string `json:"description" validate:"notblank"`
	PropertyType      string `json:"property_type" validate:"notblank,ptype"`
	Parking           string `json:"parking" validate:"notblank"`
	Amenities         string `json:"amenities" validate:"notblank"`
	PropertyCondition string `json:"property_condition" validate:"notblank,pcondition"`
	Floors            string `json:"floors" validate:"notblank"`
	Image             string `json:"image" validate:"notblank"`

	// ImageName is the original file name shown to the user. The server
	// only ever sees Image.
	ImageName string `json:"-"`
}

// Fields lists the settable draft fields by wire name, in form order.
var Fields = []string{
	"title", "location", "price", "square_feet", "year_built", "description",
	"property_type", "parking", "amenities", "property_condition", "floors", "image",
}

// NewDraft returns an empty draft for the create flow.
func NewDraft() Draft {
	return Draft{}
}

// DraftFromProperty hydrates a draft for the edit flow.
func DraftFromProperty(p Property) Draft {
	return Draft{
		Title:             p.Title,
		Location:          p.Location,
		Price:             formatNumber(p.Price),
		SquareFeet:        formatNumber(float64(p.SquareFeet)),
		YearBuilt:         formatNumber(float64(p.YearBuilt)),
		Description:       p.Description,
		PropertyType:      string(p.PropertyType),
		Parking:           p.Parking,
		Amenities:         p.Amenities,
		PropertyCondition: string(p.PropertyCondition),
		Floors:            p.Floors,
		Image:             p.Image,
	}
}

// formatNumber renders n without exponent or trailing zeros. Zero renders
// as empty so an unset server value shows up as a missing field.
func formatNumber(n float64) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// Set assigns a field by its wire name.
func (d *Draft) Set(field, value string) error {
	switch field {
	case "title":
		d.Title = value
	case "location":
		d.Location = value
	case "price":
		d.Price = value
	case "square_feet":
		d.SquareFeet = value
	case "year_built":
		d.YearBuilt = value
	case "description":
		d.Description = value
	case "property_type":
		d.PropertyType = value
	case "parking":
		d.Parking = value
	case "amenities":
		d.Amenities = value
	case "property_condition":
		d.PropertyCondition = value
	case "floors":
		d.Floors = value
	case "image":
		d.Image = value
	default:
		return fmt.Errorf("unknown field %q", field)
	}
	return nil
}

// Get returns a field by its wire name.
func (d Draft) Get(field string) (string, error) {
	switch field {
	case "title":
		return d.Title, nil
	case "location":
		return d.Location, nil
	case "price":
		return d.Price, nil
	case "square_feet":
		return d.SquareFeet, nil
	case "year_built":
		return d.YearBuilt, nil
	case "description":
		return d.Description, nil
	case "property_type":
		return d.PropertyType, nil
	case "parking":
		return d.Parking, nil
	case "amenities":
		return d.Amenities, nil
	case "property_condition":
		return d.PropertyCondition, nil
	case "floors":
		return d.Floors, nil
	case "image":
		return d.Image, nil
	default:
		return "", fmt.Errorf("unknown field %q", field)
	}
}

// HasImage reports whether an uploaded image is referenced.
func (d Draft) HasImage() bool {
	return strings.TrimSpace(d.Image) != ""
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (d Draft) Trimmed() Draft {
	out := d
	for _, f := range Fields {
		v, _ := d.Get(f)
		_ = out.Set(f, strings.TrimSpace(v))
	}
	return out
}

// Valid reports whether the draft may be submitted.
func (d Draft) Valid() bool {
	return d.Validate() == nil
}

// Validate applies the same rules to create and edit drafts: every field is
// non-blank, price and square_feet are numbers greater than zero, year_built
// is a four-digit year and the enum fields hold known values.
func (d Draft) Validate() error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validating draft: %w", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &ValidationError{Fields: fields}
}

// ValidationError lists the draft fields that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+e.Fields[name])
	}
	return "invalid property: " + strings.Join(parts, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank":
		return "is required"
	case "positive":
		return "must be a number greater than 0"
	case "count":
		return "must be a whole number greater than 0"
	case "year":
		return "must be a four-digit year"
	case "ptype":
		return "must be one of " + joinTypes()
	case "pcondition":
		return "must be one of " + joinConditions()
	default:
		return "failed " + fe.Tag()
	}
}

func joinTypes() string {
	s := make([]string, len(Types))
	for i, t := range Types {
		s[i] = string(t)
	}
	return strings.Join(s, ", ")
}

func joinConditions() string {
	s := make([]string, len(Conditions))
	for i, c := range Conditions {
		s[i] = string(c)
	}
	return strings.Join(s, ", ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their wire names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	must := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("registering %s validation: %v", tag, err))
		}
	}

	must("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	must("positive", func(fl validator.FieldLevel) bool {
		n, err := strconv.ParseFloat(strings.TrimSpace(fl.Field().String()), 64)
		return err == nil && n > 0 && !math.IsInf(n, 1)
	})
	must("count", func(fl validator.FieldLevel) bool {
		n, err := strconv.ParseInt(strings.TrimSpace(fl.Field().String()), 10, 64)
		return err == nil && n > 0
	})
	must("year", func(fl validator.FieldLevel) bool {
		s := strings.TrimSpace(fl.Field().String())
		if len(s) != 4 {
			return false
		}
		n, err := strconv.Atoi(s)
		return err == nil && n >= 1000
	})
	must("ptype", func(fl validator.FieldLevel) bool {
		return ValidType(strings.TrimSpace(fl.Field().String()))
	})
	must("pcondition", func(fl validator.FieldLevel) bool {
		return ValidCondition(strings.TrimSpace(fl.Field().String()))
	})

	return v
}
