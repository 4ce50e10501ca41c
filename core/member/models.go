// Package member holds the parishioner records collected by the registration wizard,
// the forms that validate & normalize them, and the error envelope of the members API.
package member

// Gender values
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// Marital status values
const (
	MaritalSingle   = "single"
	MaritalMarried  = "married"
	MaritalDivorced = "divorced"
	MaritalWidowed  = "widowed"
)

var (
	Genders         = []string{GenderMale, GenderFemale, GenderOther}
	MaritalStatuses = []string{MaritalSingle, MaritalMarried, MaritalDivorced, MaritalWidowed}
)

// Record is the normalized data of one wizard step.
type Record interface {
	Fields() []Field
}

// Field is one labelled value of a Record. Value is nil when absent.
type Field struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Value *string `json:"value"`
}

func required(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// PersonalInfo: FirstName, LastName & DateOfBirth are set once the step is submitted.
type PersonalInfo struct {
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	DateOfBirth   string  `json:"date_of_birth"` // YYYY-MM-DD
	OtherNames    *string `json:"other_names,omitempty"`
	MaidenName    *string `json:"maiden_name,omitempty"`
	Gender        *string `json:"gender,omitempty"`
	PlaceOfBirth  *string `json:"place_of_birth,omitempty"`
	Hometown      *string `json:"hometown,omitempty"`
	Region        *string `json:"region,omitempty"`
	Country       *string `json:"country,omitempty"`
	MaritalStatus *string `json:"marital_status,omitempty"`
}

func (p PersonalInfo) Fields() []Field {
	return []Field{
		{Key: "first_name", Label: "First Name", Value: required(p.FirstName)},
		{Key: "last_name", Label: "Last Name", Value: required(p.LastName)},
		{Key: "other_names", Label: "Other Names", Value: p.OtherNames},
		{Key: "maiden_name", Label: "Maiden Name", Value: p.MaidenName},
		{Key: "date_of_birth", Label: "Date of Birth", Value: required(p.DateOfBirth)},
		{Key: "gender", Label: "Gender", Value: p.Gender},
		{Key: "place_of_birth", Label: "Place of Birth", Value: p.PlaceOfBirth},
		{Key: "hometown", Label: "Hometown", Value: p.Hometown},
		{Key: "region", Label: "Region", Value: p.Region},
		{Key: "country", Label: "Country", Value: p.Country},
		{Key: "marital_status", Label: "Marital Status", Value: p.MaritalStatus},
	}
}

type ContactInfo struct {
	MobileNumber   string  `json:"mobile_number"`
	WhatsAppNumber *string `json:"whatsapp_number,omitempty"`
	EmailAddress   *string `json:"email_address,omitempty"`
}

func (c ContactInfo) Fields() []Field {
	return []Field{
		{Key: "mobile_number", Label: "Mobile Number", Value: required(c.MobileNumber)},
		{Key: "whatsapp_number", Label: "WhatsApp Number", Value: c.WhatsAppNumber},
		{Key: "email_address", Label: "Email Address", Value: c.EmailAddress},
	}
}

type OccupationInfo struct {
	Role     *string `json:"role,omitempty"`
	Employer *string `json:"employer,omitempty"`
}

func (o OccupationInfo) Fields() []Field {
	return []Field{
		{Key: "occupation_role", Label: "Role", Value: o.Role},
		{Key: "employer", Label: "Employer", Value: o.Employer},
	}
}

type EmergencyInfo struct {
	Name             string  `json:"name"`
	Relationship     string  `json:"relationship"`
	PrimaryPhone     string  `json:"primary_phone"`
	AlternativePhone *string `json:"alternative_phone,omitempty"`
}

func (e EmergencyInfo) Fields() []Field {
	return []Field{
		{Key: "emergency_contact_name", Label: "Name", Value: required(e.Name)},
		{Key: "emergency_contact_relationship", Label: "Relationship", Value: required(e.Relationship)},
		{Key: "emergency_contact_primary_phone", Label: "Primary Phone", Value: required(e.PrimaryPhone)},
		{Key: "emergency_contact_alternative_phone", Label: "Alternative Phone", Value: e.AlternativePhone},
	}
}
