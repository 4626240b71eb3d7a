package booking

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	typ := TypeInvestigation
	b := fixture("b1", "r1", StatusApproved, at("2024-01-10", "09:00"), at("2024-01-10", "10:30"))
	b.Title = "Dana Levi"
	b.InvestigatorID = "12345"
	b.InterrogatedName = "Suspect, John"
	b.Offenses = "theft"
	b.Type = &typ
	b.IsRecorded = true
	orphan := fixture("b2", "gone", StatusPending, at("2024-01-11", "09:00"), at("2024-01-11", "10:00"))

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []*Booking{b, orphan}, map[string]string{"r1": "Room A"}, testLoc))

	out := buf.Bytes()
	require.True(t, bytes.HasPrefix(out, utf8BOM))

	records, err := csv.NewReader(bytes.NewReader(out[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, []string{
		"b1", "Dana Levi", "12345", "Suspect, John", "INVESTIGATION", "theft", "Room A",
		"2024-01-10 09:00", "2024-01-10 10:30", "APPROVED", "true",
	}, records[1])
	assert.Equal(t, "", records[2][6])
	assert.Equal(t, "", records[2][4])
}

func TestSummary(t *testing.T) {
	phone := "050-0000000"
	b := fixture("b1", "r1", StatusApproved, at("2024-01-10", "09:00"), at("2024-01-10", "10:00"))
	b.PhoneNumber = &phone
	b.CreatedAt = at("2024-01-05", "08:15")

	text := Summary(b, "Room A", testLoc)
	assert.Contains(t, text, "Room:")
	assert.Contains(t, text, "Room A")
	assert.Contains(t, text, phone)
	assert.Contains(t, text, "2024-01-10 09:00")
	assert.Contains(t, text, "2024-01-05 08:15")
	// Unset fields render as a dash.
	assert.Contains(t, text, "Second investigator ID:")
	assert.Regexp(t, `Second investigator ID:\s+-\n`, text)
}
