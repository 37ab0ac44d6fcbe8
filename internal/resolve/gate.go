package resolve

import (
	"context"
	"strings"

	"trapper/internal/blacklist"
	dErrors "trapper/pkg/domain-errors"
)

// Organizational local parts that mark an email as a shared org mailbox, not
// a person. Inputs carrying one of these fail classification outright.
var organizationalLocalParts = map[string]struct{}{
	"info":      {},
	"office":    {},
	"admin":     {},
	"contact":   {},
	"frontdesk": {},
	"noreply":   {},
	"no-reply":  {},
	"support":   {},
	"billing":   {},
}

// gateRejection explains why the entry gate refused an input. The code on the
// carried error distinguishes recoverable validation rejections from permanent
// classification ones, and is persisted on the decision as its reject class.
type gateRejection struct {
	Err *dErrors.Error
}

func validationRejection(reason string) *gateRejection {
	return &gateRejection{Err: dErrors.New(dErrors.CodeValidationRejected, reason)}
}

func classificationRejection(reason string) *gateRejection {
	return &gateRejection{Err: dErrors.New(dErrors.CodeClassificationRejected, reason)}
}

// checkGate runs the entry gate. Gate failure always yields Rejected with no
// person created, regardless of how similar the input is to an existing
// person.
func (s *Service) checkGate(ctx context.Context, input normalizedInput) (*gateRejection, error) {
	if input.Email == "" && input.Phone == "" {
		return validationRejection("no email or phone"), nil
	}
	if input.FirstName == "" {
		return validationRejection("no first name"), nil
	}

	if input.Email != "" {
		if local, _, found := strings.Cut(input.Email, "@"); found {
			if _, org := organizationalLocalParts[local]; org {
				return classificationRejection("organizational email pattern"), nil
			}
		}

		entry, err := s.blacklist.Lookup(ctx, blacklist.ValueEmail, input.Email)
		if err != nil {
			return nil, err
		}
		if entry != nil && entry.Kind == blacklist.KindOrganizational {
			return classificationRejection("organizational blacklist entry"), nil
		}
	}

	if input.Phone != "" {
		entry, err := s.blacklist.Lookup(ctx, blacklist.ValuePhone, input.Phone)
		if err != nil {
			return nil, err
		}
		if entry != nil && entry.Kind == blacklist.KindOrganizational {
			return classificationRejection("organizational blacklist entry"), nil
		}
	}

	return nil, nil
}
