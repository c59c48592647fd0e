package reconcile

import (
	"fmt"
	"strings"

	"github.com/laserowo/studio-manager/internal/models"
)

// Kind names an entity the resolver can find or create.
type Kind string

const (
	KindClient        Kind = "client"
	KindService       Kind = "service"
	KindTreatmentArea Kind = "treatment_area"
	KindPaymentMethod Kind = "payment_method"
	KindPromotion     Kind = "promotion"
	KindHardware      Kind = "hardware"
)

// ReferenceKinds lists the kinds sharing the name-keyed shape.
var ReferenceKinds = []Kind{
	KindService,
	KindTreatmentArea,
	KindPaymentMethod,
	KindPromotion,
	KindHardware,
}

func (k Kind) IsReference() bool {
	for _, r := range ReferenceKinds {
		if r == k {
			return true
		}
	}
	return false
}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if k == KindClient || k.IsReference() {
		return k, nil
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}

// KeyField is a natural key a lookup can probe.
type KeyField string

const (
	FieldExternalID KeyField = "external_id"
	FieldPhone      KeyField = "phone_number"
	FieldEmail      KeyField = "email"
	FieldFullName   KeyField = "full_name"
	FieldName       KeyField = "name"
)

// ClientKeyPriority is the probe order for clients, most authoritative first.
var ClientKeyPriority = []KeyField{FieldExternalID, FieldPhone, FieldEmail, FieldFullName}

// Key is one (field, value) probe.
type Key struct {
	Field KeyField
	Value string
}

// Ref identifies a resolved row.
type Ref struct {
	Kind    Kind   `json:"kind"`
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Created bool   `json:"created"`
}

// NormalizeName is the case-insensitive form used for name lookups.
func NormalizeName(s string) string {
	return models.NameKey(s)
}
