package domain

// Principal is the authentication context of a single request: the resolved
// user and the authorities derived from its role.
type Principal struct {
	User        User     `json:"user"`
	Authorities []string `json:"authorities"`
}

// NewPrincipal builds a Principal for u.
func NewPrincipal(u User) *Principal {
	return &Principal{User: u, Authorities: u.Authorities()}
}

// HasAuthority reports whether the principal was granted authority.
func (p *Principal) HasAuthority(authority string) bool {
	if p == nil {
		return false
	}
	for _, a := range p.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}
