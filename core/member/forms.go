package member

import (
	"strings"

	"github.com/parishdesk/parishdesk/core"
)

// Form is the editable state of one wizard step.
// Clean runs before validation; Format turns the validated form into its Record.
type Form interface {
	Clean()
	Format() Record
}

var (
	_ Form = (*PersonalForm)(nil)
	_ Form = (*ContactForm)(nil)
	_ Form = (*OccupationForm)(nil)
	_ Form = (*EmergencyForm)(nil)
)

type PersonalForm struct {
	FirstName     string `json:"first_name" validate:"required,max=100"`
	LastName      string `json:"last_name" validate:"required,max=100"`
	DateOfBirth   string `json:"date_of_birth" validate:"required,isodate,pastdate"`
	OtherNames    string `json:"other_names" validate:"max=100"`
	MaidenName    string `json:"maiden_name" validate:"max=100"`
	Gender        string `json:"gender" validate:"omitempty,oneof=male female other"`
	PlaceOfBirth  string `json:"place_of_birth" validate:"max=100"`
	Hometown      string `json:"hometown" validate:"max=100"`
	Region        string `json:"region" validate:"max=100"`
	Country       string `json:"country" validate:"max=100"`
	MaritalStatus string `json:"marital_status" validate:"omitempty,oneof=single married divorced widowed"`
}

// NewPersonalForm seeds the form with the current step data.
func NewPersonalForm(info PersonalInfo) *PersonalForm {
	return &PersonalForm{
		FirstName:     info.FirstName,
		LastName:      info.LastName,
		DateOfBirth:   info.DateOfBirth,
		OtherNames:    core.StringValue(info.OtherNames),
		MaidenName:    core.StringValue(info.MaidenName),
		Gender:        core.StringValue(info.Gender),
		PlaceOfBirth:  core.StringValue(info.PlaceOfBirth),
		Hometown:      core.StringValue(info.Hometown),
		Region:        core.StringValue(info.Region),
		Country:       core.StringValue(info.Country),
		MaritalStatus: core.StringValue(info.MaritalStatus),
	}
}

func (f *PersonalForm) Clean() {
	f.FirstName = core.CleanString(f.FirstName)
	f.LastName = core.CleanString(f.LastName)
	f.DateOfBirth = core.CleanString(f.DateOfBirth)
	f.OtherNames = core.CleanString(f.OtherNames)
	f.MaidenName = core.CleanString(f.MaidenName)
	f.Gender = core.CleanString(f.Gender, true /* lower */)
	f.PlaceOfBirth = core.CleanString(f.PlaceOfBirth)
	f.Hometown = core.CleanString(f.Hometown)
	f.Region = core.CleanString(f.Region)
	f.Country = core.CleanString(f.Country)
	f.MaritalStatus = core.CleanString(f.MaritalStatus, true /* lower */)
}

func (f *PersonalForm) Format() Record {
	return PersonalInfo{
		FirstName:     core.CleanString(f.FirstName),
		LastName:      core.CleanString(f.LastName),
		DateOfBirth:   core.CleanString(f.DateOfBirth),
		OtherNames:    core.OptionalString(f.OtherNames),
		MaidenName:    core.OptionalString(f.MaidenName),
		Gender:        core.OptionalString(strings.ToLower(f.Gender)),
		PlaceOfBirth:  core.OptionalString(f.PlaceOfBirth),
		Hometown:      core.OptionalString(f.Hometown),
		Region:        core.OptionalString(f.Region),
		Country:       core.OptionalString(f.Country),
		MaritalStatus: core.OptionalString(strings.ToLower(f.MaritalStatus)),
	}
}

type ContactForm struct {
	MobileNumber   string `json:"mobile_number" validate:"required,phone"`
	WhatsAppNumber string `json:"whatsapp_number" validate:"omitempty,phone"`
	EmailAddress   string `json:"email_address" validate:"omitempty,email"`
}

func NewContactForm(info ContactInfo) *ContactForm {
	return &ContactForm{
		MobileNumber:   info.MobileNumber,
		WhatsAppNumber: core.StringValue(info.WhatsAppNumber),
		EmailAddress:   core.StringValue(info.EmailAddress),
	}
}

func (f *ContactForm) Clean() {
	f.MobileNumber = core.CleanString(f.MobileNumber)
	f.WhatsAppNumber = core.CleanString(f.WhatsAppNumber)
	f.EmailAddress = core.CleanString(f.EmailAddress, true /* lower */)
}

// Format defaults the WhatsApp number to the mobile number.
func (f *ContactForm) Format() Record {
	info := ContactInfo{
		MobileNumber:   core.CleanString(f.MobileNumber),
		WhatsAppNumber: core.OptionalString(f.WhatsAppNumber),
		EmailAddress:   core.OptionalString(f.EmailAddress),
	}
	if info.WhatsAppNumber == nil {
		info.WhatsAppNumber = core.OptionalString(info.MobileNumber)
	}
	return info
}

type OccupationForm struct {
	Role     string `json:"role" validate:"max=100"`
	Employer string `json:"employer" validate:"max=150"`
}

func NewOccupationForm(info OccupationInfo) *OccupationForm {
	return &OccupationForm{
		Role:     core.StringValue(info.Role),
		Employer: core.StringValue(info.Employer),
	}
}

func (f *OccupationForm) Clean() {
	f.Role = core.CleanString(f.Role)
	f.Employer = core.CleanString(f.Employer)
}

func (f *OccupationForm) Format() Record {
	return OccupationInfo{
		Role:     core.OptionalString(f.Role),
		Employer: core.OptionalString(f.Employer),
	}
}

type EmergencyForm struct {
	Name             string `json:"name" validate:"required,max=150"`
	Relationship     string `json:"relationship" validate:"required,max=50"`
	PrimaryPhone     string `json:"primary_phone" validate:"required,phone"`
	AlternativePhone string `json:"alternative_phone" validate:"omitempty,phone"`
}

func NewEmergencyForm(info EmergencyInfo) *EmergencyForm {
	return &EmergencyForm{
		Name:             info.Name,
		Relationship:     info.Relationship,
		PrimaryPhone:     info.PrimaryPhone,
		AlternativePhone: core.StringValue(info.AlternativePhone),
	}
}

func (f *EmergencyForm) Clean() {
	f.Name = core.CleanString(f.Name)
	f.Relationship = core.CleanString(f.Relationship)
	f.PrimaryPhone = core.CleanString(f.PrimaryPhone)
	f.AlternativePhone = core.CleanString(f.AlternativePhone)
}

func (f *EmergencyForm) Format() Record {
	return EmergencyInfo{
		Name:             core.CleanString(f.Name),
		Relationship:     core.CleanString(f.Relationship),
		PrimaryPhone:     core.CleanString(f.PrimaryPhone),
		AlternativePhone: core.OptionalString(f.AlternativePhone),
	}
}
