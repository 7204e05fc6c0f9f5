package notify

import (
	"bytes"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

const dateLayout = "2006-01-02"

var textBody = texttemplate.Must(texttemplate.New("text").Parse(`Dear {{.Name}},

Your booking has been confirmed!

Booking Reference: {{.Reference}}
Property: {{.Property}}
Check-in: {{.CheckIn}}
Check-out: {{.CheckOut}}
Total Amount: {{.Total}}

Thank you for choosing us!
`))

var htmlBody = htmltemplate.Must(htmltemplate.New("html").Parse(`<html>
<body>
<h2>Booking Confirmation</h2>
<p>Dear {{.Name}},</p>
<p>Your booking has been confirmed!</p>
<ul>
<li><strong>Booking Reference:</strong> {{.Reference}}</li>
<li><strong>Property:</strong> {{.Property}}</li>
<li><strong>Check-in:</strong> {{.CheckIn}}</li>
<li><strong>Check-out:</strong> {{.CheckOut}}</li>
<li><strong>Total Amount:</strong> {{.Total}}</li>
</ul>
<p>Thank you for choosing us!</p>
</body>
</html>
`))

type messageData struct {
	Name      string
	Reference string
	Property  string
	CheckIn   string
	CheckOut  string
	Total     string
}

// RenderConfirmation builds the plain and HTML confirmation for c.
func RenderConfirmation(c Confirmation) (Message, error) {
	name := strings.TrimSpace(c.GuestName)
	if name == "" {
		name = "Customer"
	}
	total := c.TotalPrice.StringFixed(2)
	if c.Currency != "" {
		total += " " + c.Currency
	}
	data := messageData{
		Name:      name,
		Reference: c.Reference,
		Property:  c.ListingTitle,
		CheckIn:   c.CheckIn.Format(dateLayout),
		CheckOut:  c.CheckOut.Format(dateLayout),
		Total:     total,
	}

	var text, html bytes.Buffer
	if err := textBody.Execute(&text, data); err != nil {
		return Message{}, err
	}
	if err := htmlBody.Execute(&html, data); err != nil {
		return Message{}, err
	}
	return Message{
		To:      c.GuestEmail,
		Subject: "Booking Confirmation - " + c.Reference,
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
