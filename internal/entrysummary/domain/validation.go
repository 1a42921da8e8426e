package domain

import (
	"strings"

	preshipmentdomain "github.com/smallbiznis/ftzflow/internal/preshipment/domain"
	"github.com/smallbiznis/ftzflow/pkg/validation"
)

// ValidatePreshipment lists every filing field a preshipment is missing.
func ValidatePreshipment(p preshipmentdomain.Preshipment) error {
	var missing []string
	if strings.TrimSpace(p.PortOfEntry) == "" {
		missing = append(missing, "port_of_entry")
	}
	if strings.TrimSpace(p.FilerCode) == "" {
		missing = append(missing, "filer_code")
	}
	if strings.TrimSpace(p.ImporterOfRecord) == "" {
		missing = append(missing, "importer_of_record")
	}
	if strings.TrimSpace(p.Consignee) == "" {
		missing = append(missing, "consignee")
	}
	if len(p.Items) == 0 {
		missing = append(missing, "items")
	}
	return validation.Missing(ErrMissingFilingFields, missing...)
}
