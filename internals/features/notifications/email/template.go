package email

import (
	"bytes"
	"html/template"
	"io"
	"mime/quotedprintable"
	"strconv"

	qrcode "github.com/skip2/go-qrcode"

	"marathon_backend/internals/features/notifications"
)

const qrContentID = "bib-qr"

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<body style="font-family:Arial,sans-serif;color:#222">
  <h2>Hi {{.Name}}, you're in!</h2>
  <p>Your payment for <strong>{{.MarathonName}}</strong> has been received.</p>
  <table cellpadding="6" style="border-collapse:collapse">
    <tr><td>BIB number</td><td><strong style="font-size:20px">{{.Bib}}</strong></td></tr>
    <tr><td>Category</td><td>{{.MarathonType}}</td></tr>
    {{if .MarathonDate}}<tr><td>Date</td><td>{{.MarathonDate.Format "02 Jan 2006"}}</td></tr>{{end}}
    {{if .Location}}<tr><td>Venue</td><td>{{.Location}}</td></tr>{{end}}
    {{if .ReportingTime}}<tr><td>Reporting time</td><td>{{.ReportingTime}}</td></tr>{{end}}
    {{if .RunStartTime}}<tr><td>Run starts</td><td>{{.RunStartTime}}</td></tr>{{end}}
    {{if .TshirtSize}}<tr><td>T-shirt</td><td>{{.TshirtSize}}</td></tr>{{end}}
    <tr><td>Order</td><td>{{.OrderID}}</td></tr>
  </table>
  <p>Show this code at the bib collection desk:</p>
  <img src="cid:bib-qr" alt="BIB {{.Bib}}" width="200" height="200"/>
</body>
</html>`))

func RenderConfirmation(c notifications.Confirmation) (string, error) {
	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, c); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// BibQRCode encodes "BIB:<bib>|P:<participant id>|O:<order id>" as a 256px PNG.
func BibQRCode(c notifications.Confirmation) ([]byte, error) {
	data := "BIB:" + c.Bib + "|P:" + strconv.FormatUint(uint64(c.ParticipantID), 10) + "|O:" + c.OrderID
	return qrcode.Encode(data, qrcode.Medium, 256)
}

func writeQuotedPrintable(w io.Writer, s string) error {
	qp := quotedprintable.NewWriter(w)
	if _, err := qp.Write([]byte(s)); err != nil {
		return err
	}
	return qp.Close()
}
