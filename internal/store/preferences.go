package store

import (
	"context"

	"medtrack-api/internal/model"
)

const prefColumns = `user_id, theme, timezone, email_notifications, push_notifications,
	reminder_time, reminder_buffer, sound_enabled, vibration_enabled,
	color_scheme, font_size, use_high_contrast`

func (q *pgQueries) Preferences(ctx context.Context, userID string) (*model.UserPreferences, error) {
	p := &model.UserPreferences{}
	err := q.db.QueryRow(ctx,
		`SELECT `+prefColumns+`, created_at, updated_at
		 FROM user_preferences WHERE user_id = $1`, userID,
	).Scan(&p.UserID, &p.Theme, &p.Timezone, &p.EmailNotifications, &p.PushNotifications,
		&p.ReminderTime, &p.ReminderBuffer, &p.SoundEnabled, &p.VibrationEnabled,
		&p.ColorScheme, &p.FontSize, &p.UseHighContrast, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (q *pgQueries) UpsertPreferences(ctx context.Context, p *model.UserPreferences) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO user_preferences (`+prefColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		 ON CONFLICT (user_id) DO UPDATE SET
		   theme=EXCLUDED.theme, timezone=EXCLUDED.timezone,
		   email_notifications=EXCLUDED.email_notifications,
		   push_notifications=EXCLUDED.push_notifications,
		   reminder_time=EXCLUDED.reminder_time, reminder_buffer=EXCLUDED.reminder_buffer,
		   sound_enabled=EXCLUDED.sound_enabled, vibration_enabled=EXCLUDED.vibration_enabled,
		   color_scheme=EXCLUDED.color_scheme, font_size=EXCLUDED.font_size,
		   use_high_contrast=EXCLUDED.use_high_contrast, updated_at=NOW()`,
		p.UserID, p.Theme, p.Timezone, p.EmailNotifications, p.PushNotifications,
		p.ReminderTime, p.ReminderBuffer, p.SoundEnabled, p.VibrationEnabled,
		p.ColorScheme, p.FontSize, p.UseHighContrast,
	)
	return err
}
