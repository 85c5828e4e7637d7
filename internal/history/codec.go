package history

import (
	"errors"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"medtrack-api/internal/model"
)

var errMalformed = errors.New("malformed cached history page")

// Field numbers of the cached page.
const (
	pageRecords    protowire.Number = 1
	pageTotal      protowire.Number = 2
	pagePage       protowire.Number = 3
	pageTotalPages protowire.Number = 4
)

// Field numbers of one cached entry.
const (
	entryID protowire.Number = iota + 1
	entryMedicationID
	entryTimestamp
	entryNotes
	entrySkipped
	entryRecordedBy
	entryCreatedAt
	entryMedicationName
	entryDosage
	entryUnit
	entryGroupID
	entryGroupName
	entryGroupColor
)

func encodePage(p *model.HistoryPage) []byte {
	var out []byte
	for i := range p.Records {
		out = protowire.AppendTag(out, pageRecords, protowire.BytesType)
		out = protowire.AppendBytes(out, encodeEntry(&p.Records[i]))
	}
	out = appendInt(out, pageTotal, int64(p.Total))
	out = appendInt(out, pagePage, int64(p.Page))
	out = appendInt(out, pageTotalPages, int64(p.TotalPages))
	return out
}

func encodeEntry(e *model.DoseEntry) []byte {
	var out []byte
	out = appendString(out, entryID, e.ID)
	out = appendString(out, entryMedicationID, e.MedicationID)
	out = appendTime(out, entryTimestamp, e.Timestamp)
	out = appendString(out, entryNotes, e.Notes)
	if e.Skipped {
		out = protowire.AppendTag(out, entrySkipped, protowire.VarintType)
		out = protowire.AppendVarint(out, protowire.EncodeBool(true))
	}
	out = appendString(out, entryRecordedBy, e.RecordedByUserID)
	out = appendTime(out, entryCreatedAt, e.CreatedAt)
	out = appendString(out, entryMedicationName, e.MedicationName)
	out = appendString(out, entryDosage, e.Dosage)
	out = appendString(out, entryUnit, e.Unit)
	out = appendString(out, entryGroupID, e.GroupID)
	out = appendString(out, entryGroupName, e.GroupName)
	out = appendString(out, entryGroupColor, e.GroupColor)
	return out
}

func appendString(out []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return out
	}
	out = protowire.AppendTag(out, num, protowire.BytesType)
	return protowire.AppendString(out, s)
}

func appendInt(out []byte, num protowire.Number, v int64) []byte {
	if v == 0 {
		return out
	}
	out = protowire.AppendTag(out, num, protowire.VarintType)
	return protowire.AppendVarint(out, protowire.EncodeZigZag(v))
}

// appendTime stores unix nanoseconds. Zone is not kept.
func appendTime(out []byte, num protowire.Number, t time.Time) []byte {
	if t.IsZero() {
		return out
	}
	return appendInt(out, num, t.UnixNano())
}

func decodePage(b []byte) (*model.HistoryPage, error) {
	p := &model.HistoryPage{Records: []model.DoseEntry{}}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, errMalformed
		}
		b = b[n:]
		if num == pageRecords && typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, errMalformed
			}
			e, err := decodeEntry(v)
			if err != nil {
				return nil, err
			}
			p.Records = append(p.Records, e)
			b = b[n:]
		} else if typ == protowire.VarintType && num >= pageTotal && num <= pageTotalPages {
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, errMalformed
			}
			i := int(protowire.DecodeZigZag(v))
			switch num {
			case pageTotal:
				p.Total = i
			case pagePage:
				p.Page = i
			case pageTotalPages:
				p.TotalPages = i
			}
			b = b[n:]
		} else {
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, errMalformed
			}
			b = b[n:]
		}
	}
	return p, nil
}

func decodeEntry(b []byte) (model.DoseEntry, error) {
	var e model.DoseEntry
	strs := map[protowire.Number]*string{
		entryID:             &e.ID,
		entryMedicationID:   &e.MedicationID,
		entryNotes:          &e.Notes,
		entryRecordedBy:     &e.RecordedByUserID,
		entryMedicationName: &e.MedicationName,
		entryDosage:         &e.Dosage,
		entryUnit:           &e.Unit,
		entryGroupID:        &e.GroupID,
		entryGroupName:      &e.GroupName,
		entryGroupColor:     &e.GroupColor,
	}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return e, errMalformed
		}
		b = b[n:]

		if dst, ok := strs[num]; ok && typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return e, errMalformed
			}
			*dst = string(v)
			b = b[n:]
			continue
		}
		if typ != protowire.VarintType {
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return e, errMalformed
			}
			b = b[n:]
			continue
		}

		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return e, errMalformed
		}
		switch num {
		case entryTimestamp:
			e.Timestamp = time.Unix(0, protowire.DecodeZigZag(v)).UTC()
		case entryCreatedAt:
			e.CreatedAt = time.Unix(0, protowire.DecodeZigZag(v)).UTC()
		case entrySkipped:
			e.Skipped = protowire.DecodeBool(v)
		}
		b = b[n:]
	}
	return e, nil
}
