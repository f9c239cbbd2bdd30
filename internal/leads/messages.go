package leads

import (
	"fmt"
	"strings"

	"github.com/chowjack2099/China-side-Execution/internal/notify"
	"github.com/chowjack2099/China-side-Execution/internal/notify/templates"
)

const placeholder = "-"

var ownerNotification = templates.MustPair("owner_notification",
	`New lead received

Name: {{.Name}}
Email: {{.Email}}
Company: {{.Company}}
Timeline: {{.Timeline}}
Source: {{.Source}}

Details:
{{.Details}}
`,
	`<div style="font-family:Arial,sans-serif;line-height:1.6;color:#111">
  <h2 style="margin:0 0 12px">New lead received</h2>
  <table style="border-collapse:collapse">
    <tr><td style="padding:4px 10px 4px 0"><b>Name</b></td><td>{{.Name}}</td></tr>
    <tr><td style="padding:4px 10px 4px 0"><b>Email</b></td><td>{{.Email}}</td></tr>
    <tr><td style="padding:4px 10px 4px 0"><b>Company</b></td><td>{{.Company}}</td></tr>
    <tr><td style="padding:4px 10px 4px 0"><b>Timeline</b></td><td>{{.Timeline}}</td></tr>
    <tr><td style="padding:4px 10px 4px 0"><b>Source</b></td><td>{{.Source}}</td></tr>
  </table>
  <h3 style="margin:16px 0 8px">Details</h3>
  <div style="white-space:pre-wrap;border:1px solid #eee;border-radius:10px;padding:12px;background:#fafafa">{{.Details}}</div>
</div>
`)

var acknowledgment = templates.MustPair("acknowledgment",
	`Hi{{if .Name}} {{.Name}}{{end}},

Thanks for reaching out to {{.Brand}}. We've received your request and will respond within 24 hours.

For faster coordination, you can also contact us:
{{- if .WhatsApp}}
WhatsApp Business: {{.WhatsApp}}
{{- end}}
Email: {{.OwnerEmail}}

To help us move quickly, please reply with:
1) City/Factory location (if known)
2) Timeline / deadline
3) Any supplier links, files, or photos

- {{.Signature}}
`,
	`<div style="font-family:Arial,sans-serif;line-height:1.7;color:#111">
  <p>Hi{{if .Name}} {{.Name}}{{end}},</p>
  <p>Thanks for reaching out to <b>{{.Brand}}</b>. We've received your request and will respond within <b>24 hours</b>.</p>
  <p style="margin:14px 0 6px"><b>For faster coordination:</b></p>
  <ul style="margin:6px 0 14px 18px">
    {{- if .WhatsApp}}
    <li>WhatsApp Business: <a href="https://wa.me/{{.WhatsAppDigits}}" target="_blank" rel="noopener">{{.WhatsApp}}</a></li>
    {{- end}}
    <li>Email: <a href="mailto:{{.OwnerEmail}}">{{.OwnerEmail}}</a></li>
  </ul>
  <p style="margin:14px 0 6px"><b>To help us move quickly, please reply with:</b></p>
  <ol style="margin:6px 0 14px 18px">
    <li>City / Factory location (if known)</li>
    <li>Timeline / deadline</li>
    <li>Any supplier links, files, or photos</li>
  </ol>
  <p style="margin-top:16px">- {{.Signature}}</p>
</div>
`)

// Identity is the business side of both messages.
type Identity struct {
	From       string // "Name <addr>"; must be a verified sender
	OwnerEmail string
	Brand      string
	LegalName  string
	WhatsApp   string
}

type ownerView struct {
	Name, Email, Company, Timeline, Source, Details string
}

type acknowledgmentView struct {
	Name           string
	Brand          string
	OwnerEmail     string
	WhatsApp       string
	WhatsAppDigits string
	Signature      string
}

// OwnerNotification builds the message to the owner mailbox. Replies go to the lead.
func (id Identity) OwnerNotification(sub *Submission) (notify.EmailMessage, error) {
	text, html, err := ownerNotification.Render(ownerView{
		Name:     orPlaceholder(sub.Name),
		Email:    sub.Email,
		Company:  orPlaceholder(sub.Company),
		Timeline: orPlaceholder(sub.Timeline),
		Source:   orPlaceholder(sub.Source),
		Details:  sub.Details,
	})
	if err != nil {
		return notify.EmailMessage{}, err
	}
	source := sub.Source
	if source == "" {
		source = "website"
	}
	return notify.EmailMessage{
		From:    id.From,
		To:      id.OwnerEmail,
		Subject: fmt.Sprintf("New Lead - %s (%s)", id.Brand, source),
		Body:    text,
		HTML:    html,
		ReplyTo: sub.Email,
	}, nil
}

// Acknowledgment builds the courtesy reply to the lead. Replies go to the owner.
func (id Identity) Acknowledgment(sub *Submission) (notify.EmailMessage, error) {
	signature := id.Brand
	if id.LegalName != "" {
		signature = fmt.Sprintf("%s (%s)", id.Brand, id.LegalName)
	}
	text, html, err := acknowledgment.Render(acknowledgmentView{
		Name:           sub.Name,
		Brand:          id.Brand,
		OwnerEmail:     id.OwnerEmail,
		WhatsApp:       id.WhatsApp,
		WhatsAppDigits: digitsOnly(id.WhatsApp),
		Signature:      signature,
	})
	if err != nil {
		return notify.EmailMessage{}, err
	}
	return notify.EmailMessage{
		From:    id.From,
		To:      sub.Email,
		ToName:  sub.Name,
		Subject: fmt.Sprintf("We received your request - %s", id.Brand),
		Body:    text,
		HTML:    html,
		ReplyTo: id.OwnerEmail,
	}, nil
}

func orPlaceholder(v string) string {
	if v == "" {
		return placeholder
	}
	return v
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
