// Package message renders configured message templates against a document
// and assembles outbound task entries.
//
// Full templating and localization live outside this system; the {{field}}
// interpolation kept here is the wire-format shim the transitions need.
package message

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/fieldworks/sentinel/pkg/core"
)

var fieldRe = regexp.MustCompile(`{{\s*([\w.]+)\s*}}`)

// Render interpolates {{field}} references against the document. Unresolved
// references render empty. The result is whitespace-trimmed.
func Render(tmpl string, doc *core.Document) string {
	out := fieldRe.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := fieldRe.FindStringSubmatch(m)[1]
		return lookup(doc, name)
	})
	return strings.TrimSpace(out)
}

func lookup(doc *core.Document, name string) string {
	switch name {
	case "contact_name":
		if doc.Contact != nil {
			return doc.Contact.Name
		}
		return ""
	case "patient_id":
		return doc.PatientID
	case "patient_name":
		return doc.PatientName
	case "from":
		return doc.From
	}
	if v, ok := doc.Fields[name]; ok && v != nil {
		return fmt.Sprintf("%v", v)
	}
	return ""
}

// RecipientPhone resolves a configured recipient to a phone number.
// "reporting_unit", "clinic" and "from" map to the reporting contact; any
// other name is treated as a document field holding a phone. The contact
// phone is the fallback when the field is empty.
func RecipientPhone(doc *core.Document, recipient string) string {
	switch recipient {
	case "", "reporting_unit", "clinic", "from":
		if phone := doc.ContactPhone(); phone != "" {
			return phone
		}
		return doc.From
	}
	if v, ok := doc.Fields[recipient]; ok && v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if phone := doc.ContactPhone(); phone != "" {
		return phone
	}
	return doc.From
}

// NewMessage builds a message with a fresh id.
func NewMessage(to, body string) core.Message {
	return core.Message{ID: uuid.New().String(), To: to, Body: body}
}

// AddTask renders a template and appends an immediate one-message task to
// the document. Empty rendered bodies add nothing and report false.
func AddTask(doc *core.Document, recipient, tmpl string) bool {
	body := Render(tmpl, doc)
	if body == "" {
		return false
	}
	doc.AddTask(&core.Task{
		Messages: []core.Message{NewMessage(RecipientPhone(doc, recipient), body)},
	})
	return true
}
