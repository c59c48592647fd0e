package spreadsheet

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Section is one logical table of an import source.
type Section string

const (
	SectionClients      Section = "clients"
	SectionAppointments Section = "appointments"
)

// Import field names.
const (
	FieldExternalID     = "external_id"
	FieldFullName       = "full_name"
	FieldPhone          = "phone_number"
	FieldEmail          = "email"
	FieldFacebookID     = "facebook_id"
	FieldInstagram      = "instagram_handle"
	FieldBooksyUsed     = "booksy_used"
	FieldDateOfBirth    = "date_of_birth"
	FieldIsBlacklisted  = "is_blacklisted"
	FieldIsActive       = "is_active"
	FieldNotes          = "notes"
	FieldAppointmentID  = "external_appointment_id"
	FieldClientExternal = "client_external_id"
	FieldClientFullName = "client_full_name"
	FieldDate           = "date"
	FieldStartTime      = "start_time"
	FieldEndTime        = "end_time"
	FieldSessionNumber  = "session_number_for_area"
	FieldAreaName       = "area_name"
	FieldPower          = "power_j_cm3"
	FieldNextSuggested  = "next_suggested_appointment_date"
	FieldAmount         = "amount"
	FieldServiceName    = "service_name"
	FieldPaymentMethod  = "payment_method_name"
	FieldStatus         = "status"
	FieldNextStatus     = "status_next_appointment"
	FieldPromotionName  = "promotion_name"
	FieldHardwareName   = "hardware_name"
)

var knownFields = map[Section][]string{
	SectionClients: {
		FieldExternalID, FieldFullName, FieldPhone, FieldEmail, FieldFacebookID,
		FieldInstagram, FieldBooksyUsed, FieldDateOfBirth, FieldIsBlacklisted,
		FieldIsActive, FieldNotes,
	},
	SectionAppointments: {
		FieldAppointmentID, FieldClientExternal, FieldClientFullName, FieldDate,
		FieldStartTime, FieldEndTime, FieldSessionNumber, FieldAreaName, FieldPower,
		FieldNextSuggested, FieldAmount, FieldServiceName, FieldPaymentMethod,
		FieldStatus, FieldNextStatus, FieldPromotionName, FieldHardwareName, FieldNotes,
	},
}

//go:embed default_mapping.yaml
var defaultMappingYAML []byte

// Mapping names the sheet of each section and maps column headers to
// import fields.
type Mapping struct {
	Sheets  map[Section]string            `yaml:"sheets"`
	Columns map[Section]map[string]string `yaml:"columns"`

	index map[Section]map[string]string
}

// DefaultMapping returns the built-in studio workbook layout.
func DefaultMapping() *Mapping {
	m, err := ParseMapping(defaultMappingYAML)
	if err != nil {
		panic(fmt.Sprintf("spreadsheet: default mapping: %v", err))
	}
	return m
}

// LoadMapping reads a YAML mapping file. An empty path yields the default.
func LoadMapping(path string) (*Mapping, error) {
	if path == "" {
		return DefaultMapping(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
	}
	return ParseMapping(b)
}

func ParseMapping(b []byte) (*Mapping, error) {
	var m Mapping
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse mapping: %w", err)
	}

	m.index = make(map[Section]map[string]string, len(knownFields))
	for section, fields := range knownFields {
		idx := make(map[string]string)
		for _, f := range fields {
			idx[normalizeHeader(f)] = f
		}
		for header, field := range m.Columns[section] {
			if !isKnown(section, field) {
				return nil, fmt.Errorf("parse mapping: %s column %q maps to unknown field %q", section, header, field)
			}
			idx[normalizeHeader(header)] = field
		}
		m.index[section] = idx
	}
	return &m, nil
}

// WithSheets overrides sheet names; empty values keep the current ones.
func (m *Mapping) WithSheets(clients, appointments string) *Mapping {
	cp := *m
	cp.Sheets = map[Section]string{
		SectionClients:      m.SheetName(SectionClients),
		SectionAppointments: m.SheetName(SectionAppointments),
	}
	if clients != "" {
		cp.Sheets[SectionClients] = clients
	}
	if appointments != "" {
		cp.Sheets[SectionAppointments] = appointments
	}
	return &cp
}

func (m *Mapping) SheetName(section Section) string {
	if name := m.Sheets[section]; name != "" {
		return name
	}
	return string(section)
}

// Field returns the import field a header maps to. Headers already named
// after a field map to themselves.
func (m *Mapping) Field(section Section, header string) (string, bool) {
	f, ok := m.index[section][normalizeHeader(header)]
	return f, ok
}

func isKnown(section Section, field string) bool {
	for _, f := range knownFields[section] {
		if f == field {
			return true
		}
	}
	return false
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}
