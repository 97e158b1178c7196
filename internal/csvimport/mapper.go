package csvimport

import (
	"fmt"
	"sort"
	"strings"

	pkgerrors "github.com/angelmondragon/showrunner-backend/pkg/errors"
)

// Role is the meaning a column plays in a sales export.
type Role string

const (
	RoleItemNumber Role = "item_number"
	RoleShipping   Role = "shipping"
	RoleFees       Role = "fees"
	RoleTaxes      Role = "taxes"
	RoleBuyer      Role = "buyer"
	RoleChannel    Role = "channel"
	RolePlacedAt   Role = "placed_at"
	RoleSoldPrice  Role = "sold_price"
	RoleTitle      Role = "title"
)

// RequiredRoles must be mapped before rows can be matched.
var RequiredRoles = []Role{RoleItemNumber, RoleSoldPrice}

type roleRule struct {
	role  Role
	match func(h string) bool
}

// roleRules is evaluated in order; a header takes the first role it satisfies.
// Timestamps are checked ahead of prices so "Sold Date" maps to placed_at.
// "Sold At" carries no timestamp keyword and is taken as the sold price.
var roleRules = []roleRule{
	{RoleItemNumber, func(h string) bool {
		if h == "sku" || h == "lot" || h == "slot" {
			return true
		}
		return strings.Contains(h, "item") && containsAny(h, "number", "#", "num")
	}},
	{RoleShipping, func(h string) bool { return strings.Contains(h, "ship") }},
	{RoleFees, func(h string) bool { return strings.Contains(h, "fee") }},
	{RoleTaxes, func(h string) bool { return strings.Contains(h, "tax") }},
	{RoleBuyer, func(h string) bool { return containsAny(h, "buyer", "customer") }},
	{RoleChannel, func(h string) bool { return containsAny(h, "channel", "platform") }},
	{RolePlacedAt, func(h string) bool { return containsAny(h, "placed", "date", "time") }},
	{RoleSoldPrice, func(h string) bool { return containsAny(h, "price", "sold", "amount", "total") }},
	{RoleTitle, func(h string) bool { return containsAny(h, "name", "title", "product") }},
}

// Mapping assigns a column index to each recognised role.
type Mapping map[Role]int

// InferMapping matches headers against role keywords, case-insensitively.
// Only the first header per role is kept.
func InferMapping(headers []string) Mapping {
	m := Mapping{}
	for idx, raw := range headers {
		h := strings.ToLower(strings.TrimSpace(raw))
		if h == "" {
			continue
		}
		for _, rule := range roleRules {
			if !rule.match(h) {
				continue
			}
			if _, taken := m[rule.role]; !taken {
				m[rule.role] = idx
			}
			break
		}
	}
	return m
}

// Column returns the column index for role.
func (m Mapping) Column(role Role) (int, bool) {
	idx, ok := m[role]
	return idx, ok
}

// Clone returns an independent copy.
func (m Mapping) Clone() Mapping {
	out := make(Mapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Override returns a copy of m with roles reassigned by header name. An empty
// header name unmaps the role.
func (m Mapping) Override(headers []string, overrides map[Role]string) (Mapping, error) {
	out := m.Clone()
	for role, header := range overrides {
		if !role.valid() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown column role %q", role)
		}
		if strings.TrimSpace(header) == "" {
			delete(out, role)
			continue
		}
		idx := indexOfHeader(headers, header)
		if idx < 0 {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "column %q not found in export", header).
				WithDetails(map[string]any{"role": role, "headers": headers})
		}
		out[role] = idx
	}
	return out, nil
}

// Validate rejects a mapping that leaves a required role unmapped or points
// outside the header list.
func (m Mapping) Validate(headers []string) error {
	return m.ValidateRoles(headers, RequiredRoles...)
}

// ValidateRoles is Validate with an explicit required set.
func (m Mapping) ValidateRoles(headers []string, required ...Role) error {
	var missing []string
	for _, role := range required {
		if _, ok := m[role]; !ok {
			missing = append(missing, string(role))
		}
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "required columns are not mapped").
			WithDetails(map[string]any{"missing": missing, "headers": headers})
	}
	for role, idx := range m {
		if idx < 0 || idx >= len(headers) {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "column for %s is out of range", role)
		}
	}
	return nil
}

// Named renders the mapping keyed by header text, for responses and logs.
func (m Mapping) Named(headers []string) map[Role]string {
	out := make(map[Role]string, len(m))
	for role, idx := range m {
		if idx >= 0 && idx < len(headers) {
			out[role] = headers[idx]
		}
	}
	return out
}

// String is a stable rendering used in log fields.
func (m Mapping) String() string {
	parts := make([]string, 0, len(m))
	for role, idx := range m {
		parts = append(parts, fmt.Sprintf("%s=%d", role, idx))
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

func (r Role) valid() bool {
	for _, rule := range roleRules {
		if rule.role == r {
			return true
		}
	}
	return false
}

func indexOfHeader(headers []string, name string) int {
	for i, h := range headers {
		if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(name)) {
			return i
		}
	}
	return -1
}

func containsAny(h string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(h, n) {
			return true
		}
	}
	return false
}
