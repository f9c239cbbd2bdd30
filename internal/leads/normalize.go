package leads

import (
	"bytes"
	"encoding/json"
	"mime"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// minDetailsLength counts characters (runes), not bytes or UTF-16 units:
// "日本語" passes and two emoji do not.
const minDetailsLength = 3

// Accepted input names per canonical field, in priority order. Landing pages
// and ad variants post the same form under different names.
var (
	nameKeys    = []string{"name", "fullname"}
	emailKeys   = []string{"email", "from"}
	companyKeys = []string{"company"}
	timeKeys    = []string{"timeline"}
	detailKeys  = []string{"details", "message", "notes"}
	sourceKeys  = []string{"source", "page", "utm_source"}
)

// Normalizer turns raw fields into a validated Submission.
type Normalizer struct {
	DefaultSource string
	HoneypotField string
}

// Normalize resolves aliases, trims values and validates the result. A filled
// honeypot returns a Submission with Spam set and no error, before any
// validation runs.
func (n Normalizer) Normalize(fields Fields) (*Submission, error) {
	if n.HoneypotField != "" && fields.First(n.HoneypotField) != "" {
		return &Submission{Spam: true}, nil
	}

	sub := &Submission{
		Name:     fields.First(nameKeys...),
		Email:    fields.First(emailKeys...),
		Company:  fields.First(companyKeys...),
		Timeline: fields.First(timeKeys...),
		Details:  fields.First(detailKeys...),
		Source:   fields.First(sourceKeys...),
	}
	if sub.Source == "" {
		sub.Source = n.DefaultSource
	}

	if sub.Email == "" || !emailPattern.MatchString(sub.Email) {
		return nil, ErrInvalidEmail
	}
	if len([]rune(sub.Details)) < minDetailsLength {
		return nil, ErrMissingDetails
	}
	return sub, nil
}

// ParseFields decodes a raw body. The content type picks JSON or URL-encoded
// parsing; without a recognizable type JSON is tried first, then URL-encoding.
// Undecodable JSON under an explicit JSON type yields no fields.
func ParseFields(contentType string, raw []byte) Fields {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Fields{}
	}

	switch mediaType(contentType) {
	case "application/json":
		fields, err := parseJSON(raw)
		if err != nil {
			return Fields{}
		}
		return fields
	case "application/x-www-form-urlencoded":
		return parseForm(raw)
	}

	if fields, err := parseJSON(raw); err == nil {
		return fields
	}
	return parseForm(raw)
}

// FieldsFromMap converts an already-decoded object. Scalars are stringified;
// nested objects and arrays are dropped.
func FieldsFromMap(m map[string]any) Fields {
	fields := make(Fields, len(m))
	for key, value := range m {
		switch v := value.(type) {
		case string:
			fields[key] = v
		case json.Number:
			fields[key] = v.String()
		case float64:
			fields[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			fields[key] = strconv.Itoa(v)
		case bool:
			fields[key] = strconv.FormatBool(v)
		}
	}
	return fields
}

// FieldsFromValues converts parsed form values, keeping the first value per key.
func FieldsFromValues(values url.Values) Fields {
	fields := make(Fields, len(values))
	for key := range values {
		fields[key] = values.Get(key)
	}
	return fields
}

func parseJSON(raw []byte) (Fields, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	return FieldsFromMap(obj), nil
}

func parseForm(raw []byte) Fields {
	// ParseQuery keeps every pair it could decode even when it reports an error.
	values, _ := url.ParseQuery(string(raw))
	return FieldsFromValues(values)
}

func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	}
	return strings.ToLower(mt)
}
