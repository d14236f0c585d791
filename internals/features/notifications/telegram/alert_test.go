package telegram

import (
	"strings"
	"testing"

	"marathon_backend/internals/features/notifications"
)

func TestFormatAlert(t *testing.T) {
	got := FormatAlert(notifications.Confirmation{
		Name: "Asha", Bib: "0007", OrderID: "MRN-1", MarathonName: "City Run", MarathonType: "10K",
	})
	want := "New paid entry\nBib: 0007\nName: Asha\nEvent: City Run (10K)\nOrder: MRN-1"
	if got != want {
		t.Fatalf("FormatAlert =\n%s\nwant\n%s", got, want)
	}
	if strings.Contains(FormatAlert(notifications.Confirmation{Bib: "1"}), "Event:") {
		t.Fatal("event line printed without a marathon name")
	}
}
