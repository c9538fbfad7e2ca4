package llmclient

// VerifyTristate models a three-valued verify flag: unset means "use the
// platform default", true/false forces the behavior explicitly.
type VerifyTristate int

const (
	VerifyUnset VerifyTristate = iota
	VerifyOn
	VerifyOff
)

// TLSConfig carries certificate and verification settings for outbound
// HTTPS requests. A zero value uses the platform default trust store with
// full verification.
type TLSConfig struct {
	CAPath string
	CADir  string

	ClientCertPath string
	ClientKeyPath  string

	VerifyPeer VerifyTristate
	VerifyHost VerifyTristate

	// Insecure disables all certificate verification. Never set this
	// against production endpoints.
	Insecure bool

	// KeyPasswordFunc supplies the decryption password for an encrypted
	// client key file, if any.
	KeyPasswordFunc func() (string, error)
}

// ProxyConfig carries an optional forward-proxy URL and a no-proxy list
// applied by exact-host or domain-suffix match.
type ProxyConfig struct {
	ProxyURL string
	NoProxy  []string
}

// ShouldBypass reports whether host matches an entry in NoProxy, either
// exactly or as a suffix of a dotted domain (".example.com" matches
// "api.example.com" but not "notexample.com").
func (p ProxyConfig) ShouldBypass(host string) bool {
	for _, entry := range p.NoProxy {
		if entry == "" {
			continue
		}
		if entry == host {
			return true
		}
		suffix := entry
		if suffix[0] != '.' {
			suffix = "." + suffix
		}
		if len(host) > len(suffix) && host[len(host)-len(suffix):] == suffix {
			return true
		}
	}
	return false
}
