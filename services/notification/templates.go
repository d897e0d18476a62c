package notification

import (
	"bytes"
	"fmt"
	"text/template"
)

type messageTemplate struct {
	title *template.Template
	body  *template.Template
}

// copy lives here and only here; the booking service emits keys and fields.
var templateSources = map[string][2]string{
	"booking.requested": {
		"New booking request",
		"{{.counterpartName}} requested {{.serviceName}} on {{.date}} at {{.time}} ({{.bookingUid}}).",
	},
	"booking.requested_for_shop": {
		"New booking for your shop",
		"{{.counterpartName}} requested {{.serviceName}} on {{.date}} at {{.time}} ({{.bookingUid}}).",
	},
	"booking.accepted": {
		"Booking accepted",
		"{{.counterpartName}} accepted your {{.serviceName}} on {{.date}} at {{.time}}.",
	},
	"booking.accepted_by_provider": {
		"Booking accepted by your barber",
		"{{.serviceName}} for {{.counterpartName}} on {{.date}} at {{.time}} was accepted ({{.bookingUid}}).",
	},
	"booking.rejected": {
		"Booking declined",
		"{{.counterpartName}} could not take your {{.serviceName}} on {{.date}} at {{.time}}.",
	},
	"booking.rejected_needs_action": {
		"Booking needs a new barber",
		"A barber declined {{.serviceName}} for {{.counterpartName}} on {{.date}} at {{.time}}. Reassign or take it yourself ({{.bookingUid}}).",
	},
	"booking.reassigned_to_you": {
		"Booking assigned to you",
		"You now have {{.serviceName}} for {{.counterpartName}} on {{.date}} at {{.time}} ({{.bookingUid}}).",
	},
	"booking.reassignment_recorded": {
		"Booking reassigned",
		"{{.serviceName}} for {{.counterpartName}} on {{.date}} at {{.time}} was reassigned ({{.bookingUid}}).",
	},
	"booking.reassigned": {
		"Your booking has a new barber",
		"{{.counterpartName}} will handle your {{.serviceName}} on {{.date}} at {{.time}}.",
	},
	"booking.confirmed": {
		"Booking confirmed",
		"Your {{.serviceName}} with {{.counterpartName}} on {{.date}} at {{.time}} is confirmed.",
	},
	"booking.cancelled": {
		"Booking cancelled",
		"{{.serviceName}} on {{.date}} at {{.time}} with {{.counterpartName}} was cancelled ({{.bookingUid}}).",
	},
	"booking.completed_rate_prompt": {
		"How was your visit?",
		"Rate your {{.serviceName}} with {{.counterpartName}}.",
	},
	"booking.no_show": {
		"Missed appointment",
		"You were marked as a no-show for {{.serviceName}} on {{.date}} at {{.time}}.",
	},
}

var templates = mustParseTemplates()

func mustParseTemplates() map[string]messageTemplate {
	out := make(map[string]messageTemplate, len(templateSources))
	for key, src := range templateSources {
		out[key] = messageTemplate{
			title: template.Must(template.New(key + ".title").Option("missingkey=error").Parse(src[0])),
			body:  template.Must(template.New(key + ".body").Option("missingkey=error").Parse(src[1])),
		}
	}
	return out
}

// Render produces the push title and body for a template key.
func Render(key string, fields map[string]string) (title, body string, err error) {
	t, ok := templates[key]
	if !ok {
		return "", "", fmt.Errorf("unknown notification template %q", key)
	}
	var buf bytes.Buffer
	if err := t.title.Execute(&buf, fields); err != nil {
		return "", "", fmt.Errorf("render %s title: %w", key, err)
	}
	title = buf.String()
	buf.Reset()
	if err := t.body.Execute(&buf, fields); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", key, err)
	}
	return title, buf.String(), nil
}

// HasTemplate reports whether key can be rendered.
func HasTemplate(key string) bool {
	_, ok := templates[key]
	return ok
}
