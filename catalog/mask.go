package catalog

import "fmt"

// placeholderHost is the deterministic placeholder substituted for any
// masked connection host, matching spec §6's "__CONN_HOST__" example.
const placeholderHost = "__CONN_HOST__"

// Mask replaces security-sensitive values — foreign server options,
// user-mapping secrets, and subscription connection strings — with
// deterministic placeholders, in place, so that diffs computed over the
// returned catalog are reproducible and safe to log (spec §3, §9).
//
// Masking is idempotent: calling Mask twice produces the same result as
// calling it once, which matters because a catalog loaded from a
// previously-masked JSON snapshot must not be re-masked into double
// placeholders.
func (c *Catalog) Mask() {
	for _, srv := range c.ForeignServers {
		srv.Options = maskOptions(srv.Options)
	}
	for _, um := range c.UserMappings {
		um.Options = maskOptions(um.Options)
	}
	for _, sub := range c.Subscriptions {
		if sub.ConnInfo != "" && sub.ConnInfo != placeholderHost {
			sub.ConnInfo = placeholderHost
		}
	}
}

func maskOptions(opts map[string]string) map[string]string {
	if opts == nil {
		return nil
	}
	masked := make(map[string]string, len(opts))
	for k := range opts {
		placeholder := fmt.Sprintf("__OPTION_%s__", k)
		masked[k] = placeholder
	}
	return masked
}
