package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medtrack-api/internal/model"
)

func TestPageCodec(t *testing.T) {
	ts := time.Date(2024, 5, 10, 23, 30, 0, 0, time.UTC)
	in := &model.HistoryPage{
		Records: []model.DoseEntry{
			{
				DoseRecord: model.DoseRecord{
					ID: "d1", MedicationID: "m1", Timestamp: ts, Notes: "with food",
					Skipped: true, RecordedByUserID: "u1", CreatedAt: ts.Add(time.Minute),
				},
				MedicationName: "Aspirin", Dosage: "100", Unit: "mg",
				GroupID: "g1", GroupName: "Heart", GroupColor: "#f00",
			},
			{DoseRecord: model.DoseRecord{ID: "d2", MedicationID: "m1", Timestamp: ts.Add(-time.Hour)}},
		},
		Total:      12,
		Page:       2,
		TotalPages: 2,
	}

	out, err := decodePage(encodePage(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestEmptyPageCodec(t *testing.T) {
	out, err := decodePage(encodePage(&model.HistoryPage{Records: []model.DoseEntry{}, Page: 1}))
	require.NoError(t, err)
	assert.NotNil(t, out.Records)
	assert.Equal(t, 1, out.Page)
}

func TestDecodeMalformed(t *testing.T) {
	_, err := decodePage([]byte{0x0a, 0x05, 0x01})
	assert.ErrorIs(t, err, errMalformed)
}
