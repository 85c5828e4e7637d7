package handler

import (
	"medtrack-api/internal/api"
	"medtrack-api/internal/model"
)

func toGroup(g *model.MedicationGroup) api.Group {
	return api.Group{
		ID:           g.ID,
		UserID:       g.UserID,
		Name:         g.Name,
		Color:        g.Color,
		Icon:         g.Icon,
		DisplayOrder: g.DisplayOrder,
		Medications:  []api.Medication{},
		CreatedAt:    g.CreatedAt,
		UpdatedAt:    g.UpdatedAt,
	}
}

func toMedication(m *model.Medication) api.Medication {
	return api.Medication{
		ID:                  m.ID,
		GroupID:             m.GroupID,
		Name:                m.Name,
		Dosage:              m.Dosage,
		Unit:                m.Unit,
		Frequency:           m.Frequency,
		IsAsNeeded:          m.IsAsNeeded,
		MinTimeBetweenDoses: m.MinTimeBetweenDoses,
		CanTakeNow:          true,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

func toDose(d *model.DoseRecord) api.Dose {
	return api.Dose{
		ID:               d.ID,
		MedicationID:     d.MedicationID,
		Timestamp:        d.Timestamp,
		Notes:            d.Notes,
		Skipped:          d.Skipped,
		RecordedByUserID: d.RecordedByUserID,
		CreatedAt:        d.CreatedAt,
	}
}

func toEntry(e *model.DoseEntry) api.HistoryEntry {
	return api.HistoryEntry{
		Dose:           toDose(&e.DoseRecord),
		MedicationName: e.MedicationName,
		Dosage:         e.Dosage,
		Unit:           e.Unit,
		GroupID:        e.GroupID,
		GroupName:      e.GroupName,
		GroupColor:     e.GroupColor,
	}
}

func toGrant(g *model.AccessGrant) api.AccessGrant {
	return api.AccessGrant{
		ID:          g.ID,
		GrantedByID: g.GrantedByID,
		GrantedToID: g.GrantedToID,
		GroupID:     g.GroupID,
		CanEdit:     g.CanEdit,
		CreatedAt:   g.CreatedAt,
	}
}

func toGrantView(v *model.AccessGrantView) api.AccessGrant {
	out := toGrant(&v.AccessGrant)
	out.GrantedByEmail = v.GrantedByEmail
	out.GrantedToEmail = v.GrantedToEmail
	out.GroupName = v.GroupName
	out.GroupColor = v.GroupColor
	return out
}

func toPreferences(p *model.UserPreferences) api.Preferences {
	return api.Preferences{
		Theme:              p.Theme,
		Timezone:           p.Timezone,
		EmailNotifications: p.EmailNotifications,
		PushNotifications:  p.PushNotifications,
		ReminderTime:       p.ReminderTime,
		ReminderBuffer:     p.ReminderBuffer,
		SoundEnabled:       p.SoundEnabled,
		VibrationEnabled:   p.VibrationEnabled,
		ColorScheme:        p.ColorScheme,
		FontSize:           p.FontSize,
		UseHighContrast:    p.UseHighContrast,
	}
}
