package taxes

import (
	"fmt"
	"strings"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

func (s *Service) validate(t Tax) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: tax name is required", shared.ErrValidation)
	}
	switch t.Kind {
	case KindVAT:
		if t.VatRate < 0 || t.VatRate > 100 {
			return fmt.Errorf("%w: vat rate must be between 0 and 100", shared.ErrValidation)
		}
	case KindGST:
		if t.CgstRate < 0 || t.CgstRate > 100 || t.SgstRate < 0 || t.SgstRate > 100 {
			return fmt.Errorf("%w: gst rates must be between 0 and 100", shared.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: tax kind must be VAT or GST", shared.ErrValidation)
	}
	return nil
}
