package booking

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

const exportTimeLayout = "2006-01-02 15:04"

// utf8BOM makes spreadsheet applications detect the encoding of exported files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var csvHeader = []string{
	"id",
	"investigator",
	"investigator_id",
	"interrogated_name",
	"type",
	"offenses",
	"room",
	"start_time",
	"end_time",
	"status",
	"is_recorded",
}

// WriteCSV writes bookings as a BOM-prefixed CSV document. Times are rendered in loc
// and rooms that no longer exist are written with an empty name.
func WriteCSV(w io.Writer, bookings []*Booking, roomNames map[string]string, loc *time.Location) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, b := range bookings {
		if err := cw.Write(csvRecord(b, roomNames[b.RoomID], loc)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRecord(b *Booking, roomName string, loc *time.Location) []string {
	var typ string
	if b.Type != nil {
		typ = string(*b.Type)
	}
	return []string{
		b.ID,
		b.Title,
		b.InvestigatorID,
		b.InterrogatedName,
		typ,
		b.Offenses,
		roomName,
		b.StartTime.In(loc).Format(exportTimeLayout),
		b.EndTime.In(loc).Format(exportTimeLayout),
		string(b.Status),
		strconv.FormatBool(b.IsRecorded),
	}
}

// Summary renders a plain-text sheet for one booking, suitable for copying into a
// message or printing.
func Summary(b *Booking, roomName string, loc *time.Location) string {
	var sb strings.Builder
	line := func(label, value string) {
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(&sb, "%-24s %s\n", label+":", value)
	}

	recorded := "no"
	if b.IsRecorded {
		recorded = "yes"
	}
	var phone string
	if b.PhoneNumber != nil {
		phone = *b.PhoneNumber
	}

	line("Booking", b.ID)
	line("Status", string(b.Status))
	line("Created", b.CreatedAt.In(loc).Format(exportTimeLayout))
	line("Room", roomName)
	line("Recorded", recorded)
	line("Investigator", b.Title)
	line("Investigator ID", b.InvestigatorID)
	line("Phone", phone)
	line("Interrogated", b.InterrogatedName)
	line("Second investigator ID", b.SecondInvestigatorID)
	line("Offenses", b.Offenses)
	line("Start", b.StartTime.In(loc).Format(exportTimeLayout))
	line("End", b.EndTime.In(loc).Format(exportTimeLayout))
	return sb.String()
}
