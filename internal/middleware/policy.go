package middleware

// Policy names an authentication requirement for a route.
type Policy uint8

const (
	// Bearer requires a valid access token in the Authorization header.
	Bearer Policy = iota + 1
	// Open lets every request through without looking for credentials.
	Open
)

func (p Policy) String() string {
	switch p {
	case Bearer:
		return "bearer"
	case Open:
		return "open"
	default:
		return "unknown"
	}
}

// DefaultPolicies applies when neither a route nor its group declares one.
func DefaultPolicies() []Policy {
	return []Policy{Bearer}
}

// ResolvePolicies merges a route declaration with its group's: the route
// wins when it declares anything, then the group, then the default.
func ResolvePolicies(route, group []Policy) []Policy {
	switch {
	case len(route) > 0:
		return append([]Policy(nil), route...)
	case len(group) > 0:
		return append([]Policy(nil), group...)
	default:
		return DefaultPolicies()
	}
}
