package leads

import "strings"

// Submission is one normalized lead form submission. It lives for a single
// request and is never stored.
type Submission struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Company  string `json:"company"`
	Timeline string `json:"timeline"`
	Details  string `json:"details"`
	Source   string `json:"source"`

	// Spam is set when the honeypot field was filled in.
	Spam bool `json:"-"`
}

// Fields is the raw key/value view of a submission before aliasing.
type Fields map[string]string

// First returns the first non-empty trimmed value among keys.
func (f Fields) First(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(f[key]); v != "" {
			return v
		}
	}
	return ""
}
