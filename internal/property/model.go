// Package property provides the property domain model and form drafts.
package property

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Type is the kind of building being listed.
type Type string

const (
	TypeHouse     Type = "house"
	TypeApartment Type = "apartment"
	TypeCondo     Type = "condo"
	TypeVilla     Type = "villa"
	TypeShowroom  Type = "Showroom"
)

// Types lists every property type in display order.
var Types = []Type{TypeHouse, TypeApartment, TypeCondo, TypeVilla, TypeShowroom}

// ValidType returns true if s is a known property type.
func ValidType(s string) bool {
	for _, t := range Types {
		if string(t) == s {
			return true
		}
	}
	return false
}

// Label returns a human-readable label.
func (t Type) Label() string {
	switch t {
	case TypeHouse:
		return "House"
	case TypeApartment:
		return "Apartment"
	case TypeCondo:
		return "Condo"
	case TypeVilla:
		return "Villa"
	case TypeShowroom:
		return "Showroom"
	default:
		return string(t)
	}
}

// Condition describes the state of repair of a property.
type Condition string

const (
	ConditionNew       Condition = "new"
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionNeedsWork Condition = "needsWork"
)

// Conditions lists every condition in display order.
var Conditions = []Condition{ConditionNew, ConditionExcellent, ConditionGood, ConditionFair, ConditionNeedsWork}

// ValidCondition returns true if s is a known condition.
func ValidCondition(s string) bool {
	for _, c := range Conditions {
		if string(c) == s {
			return true
		}
	}
	return false
}

// Label returns a human-readable label.
func (c Condition) Label() string {
	switch c {
	case ConditionNew:
		return "New Construction"
	case ConditionExcellent:
		return "Excellent"
	case ConditionGood:
		return "Good"
	case ConditionFair:
		return "Fair"
	case ConditionNeedsWork:
		return "Needs Work"
	default:
		return string(c)
	}
}

// StatusCancelled marks a soft-deleted listing. Any other value is active.
const StatusCancelled = 0

// Property represents a commercial property listing as served by the API.
type Property struct {
	ID                int64     `json:"id"`
	Title             string    `json:"title"`
	Location          string    `json:"location"`
	Price             float64   `json:"price"`
	SquareFeet        int64     `json:"square_feet"`
	YearBuilt         int       `json:"year_built"`
	Description       string    `json:"description"`
	PropertyType      Type      `json:"property_type"`
	Parking           string    `json:"parking"`
	Amenities         string    `json:"amenities"`
	PropertyCondition Condition `json:"property_condition"`
	Floors            string    `json:"floors"`
	Image             string    `json:"image"`
	Status            int       `json:"status"`
}

// Active reports whether the listing has not been soft-deleted.
func (p Property) Active() bool {
	return p.Status != StatusCancelled
}

// UnmarshalJSON decodes a property, accepting numbers encoded as strings
// and floors encoded as numbers. null decodes to the zero value.
func (p *Property) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID                lenient  `json:"id"`
		Title             *string  `json:"title"`
		Location          *string  `json:"location"`
		Price             lenient  `json:"price"`
		SquareFeet        lenient  `json:"square_feet"`
		YearBuilt         lenient  `json:"year_built"`
		Description       *string  `json:"description"`
		PropertyType      *string  `json:"property_type"`
		Parking           *string  `json:"parking"`
		Amenities         *string  `json:"amenities"`
		PropertyCondition *string  `json:"property_condition"`
		Floors            lenient  `json:"floors"`
		Image             *string  `json:"image"`
		Status            *lenient `json:"status"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var err error
	var out Property
	if out.ID, err = raw.ID.int64("id"); err != nil {
		return err
	}
	if out.Price, err = raw.Price.float64("price"); err != nil {
		return err
	}
	if out.SquareFeet, err = raw.SquareFeet.int64("square_feet"); err != nil {
		return err
	}
	year, err := raw.YearBuilt.int64("year_built")
	if err != nil {
		return err
	}
	out.YearBuilt = int(year)

	// A missing status means the server does not track soft deletes for
	// this record, so treat it as active.
	out.Status = 1
	if raw.Status != nil {
		s, err := raw.Status.int64("status")
		if err != nil {
			return err
		}
		out.Status = int(s)
	}

	out.Title = deref(raw.Title)
	out.Location = deref(raw.Location)
	out.Description = deref(raw.Description)
	out.PropertyType = Type(deref(raw.PropertyType))
	out.Parking = deref(raw.Parking)
	out.Amenities = deref(raw.Amenities)
	out.PropertyCondition = Condition(deref(raw.PropertyCondition))
	out.Floors = raw.Floors.text()
	out.Image = deref(raw.Image)

	*p = out
	return nil
}

// lenient holds a JSON scalar that may be a number, a string or null.
type lenient string

func (l *lenient) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	switch {
	case s == "null":
		*l = ""
	case strings.HasPrefix(s, `"`):
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*l = lenient(strings.TrimSpace(v))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("expected number or string, got %s", s)
		}
		*l = lenient(n.String())
	}
	return nil
}

func (l lenient) text() string {
	return string(l)
}

func (l lenient) float64(field string) (float64, error) {
	if l == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(string(l), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q", field, string(l))
	}
	return f, nil
}

func (l lenient) int64(field string) (int64, error) {
	f, err := l.float64(field)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Visible returns the properties that may be shown in a listing.
// Soft-deleted records are always dropped; order is preserved.
func Visible(props []Property) []Property {
	out := make([]Property, 0, len(props))
	for _, p := range props {
		if p.Active() {
			out = append(out, p)
		}
	}
	return out
}

// FilterByLocation returns the properties whose location contains query,
// ignoring case. A blank query returns props unchanged.
func FilterByLocation(props []Property, query string) []Property {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return props
	}
	out := make([]Property, 0, len(props))
	for _, p := range props {
		if strings.Contains(strings.ToLower(p.Location), q) {
			out = append(out, p)
		}
	}
	return out
}

// Find returns the property with the given ID, if present.
func Find(props []Property, id int64) (Property, bool) {
	for _, p := range props {
		if p.ID == id {
			return p, true
		}
	}
	return Property{}, false
}

// Basename returns the final segment of an upload path. The server may
// return a full path; only the file name is stored on a property.
func Basename(filePath string) string {
	filePath = strings.TrimRight(filePath, `/\`)
	if i := strings.LastIndexAny(filePath, `/\`); i >= 0 {
		return filePath[i+1:]
	}
	return filePath
}

// FormatPrice formats a price as dollars with thousands separators.
// Cents are shown only when present.
func FormatPrice(price float64) string {
	neg := price < 0
	if neg {
		price = -price
	}
	whole := int64(price)
	cents := int64((price-float64(whole))*100 + 0.5)
	if cents == 100 {
		whole++
		cents = 0
	}
	s := strconv.FormatInt(whole, 10)

	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)

	out := "$" + strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	if cents > 0 {
		out += fmt.Sprintf(".%02d", cents)
	}
	return out
}
