package service

import (
	"strings"

	"github.com/msomdec/solifound/internal/domain"
)

// Policy decides who may use the administration panel. It is the single
// authorization check behind every admin route and the CLI.
type Policy struct {
	admins map[string]struct{}
}

// NewPolicy creates a Policy granting admin rights to the given emails.
func NewPolicy(adminEmails []string) *Policy {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		admins[strings.ToLower(strings.TrimSpace(e))] = struct{}{}
	}
	return &Policy{admins: admins}
}

// IsAdmin reports whether p may use the administration panel.
func (pol *Policy) IsAdmin(p *Principal) bool {
	if p == nil {
		return false
	}
	_, ok := pol.admins[strings.ToLower(p.Email())]
	return ok
}

// Authorize returns ErrUnauthorized for a missing principal and ErrForbidden
// for a non-admin one.
func (pol *Policy) Authorize(p *Principal) error {
	if p == nil {
		return domain.ErrUnauthorized
	}
	if !pol.IsAdmin(p) {
		return domain.ErrForbidden
	}
	return nil
}

// OperatorPrincipal is the principal the CLI acts as.
func OperatorPrincipal(email string) *Principal {
	return &Principal{Identity: domain.Identity{Email: email}}
}
