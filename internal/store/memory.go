package store

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"medtrack-api/internal/model"
)

// Memory is a Backend that keeps everything in process. It is used when no
// DATABASE_URL is configured and by unit tests. Transactions run one at a
// time against a copy of the data that replaces the original on success.
type Memory struct {
	mu   sync.Mutex
	data *memData
	now  func() time.Time
}

type memData struct {
	users  map[string]model.User
	tokens map[string]RefreshToken
	prefs  map[string]model.UserPreferences
	groups map[string]model.MedicationGroup
	meds   map[string]model.Medication
	doses  map[string]model.DoseRecord
	grants map[string]model.AccessGrant
}

func NewMemory() *Memory {
	return &Memory{
		data: &memData{
			users:  map[string]model.User{},
			tokens: map[string]RefreshToken{},
			prefs:  map[string]model.UserPreferences{},
			groups: map[string]model.MedicationGroup{},
			meds:   map[string]model.Medication{},
			doses:  map[string]model.DoseRecord{},
			grants: map[string]model.AccessGrant{},
		},
		now: time.Now,
	}
}

func (d *memData) clone() *memData {
	return &memData{
		users:  maps.Clone(d.users),
		tokens: maps.Clone(d.tokens),
		prefs:  maps.Clone(d.prefs),
		groups: maps.Clone(d.groups),
		meds:   maps.Clone(d.meds),
		doses:  maps.Clone(d.doses),
		grants: maps.Clone(d.grants),
	}
}

func (m *Memory) WithTx(ctx context.Context, fn func(q Queries) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.data.clone()
	if err := fn(&memQueries{d: work, now: m.now}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.data = work
	return nil
}

func (m *Memory) ReadTx(ctx context.Context, fn func(q Queries) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return fn(&memQueries{d: m.data.clone(), now: m.now})
}

type memQueries struct {
	d   *memData
	now func() time.Time
}

func (q *memQueries) CreateUser(_ context.Context, u *model.User) error {
	for _, existing := range q.d.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicate
		}
	}
	u.CreatedAt, u.UpdatedAt = q.now(), q.now()
	q.d.users[u.ID] = *u
	return nil
}

func (q *memQueries) UserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := q.d.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (q *memQueries) UserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range q.d.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (q *memQueries) ClaimUser(_ context.Context, id, passwordHash, name string) error {
	u, ok := q.d.users[id]
	if !ok || u.PasswordHash != "" {
		return ErrNotFound
	}
	u.PasswordHash, u.Name, u.UpdatedAt = passwordHash, name, q.now()
	q.d.users[id] = u
	return nil
}

func (q *memQueries) CreateRefreshToken(_ context.Context, userID, tokenHash string, expiresAt time.Time) (string, error) {
	id := uuid.New().String()
	q.d.tokens[id] = RefreshToken{ID: id, UserID: userID, TokenHash: tokenHash, ExpiresAt: expiresAt, CreatedAt: q.now()}
	return id, nil
}

func (q *memQueries) RefreshTokenByHash(_ context.Context, tokenHash string) (*RefreshToken, error) {
	for _, rt := range q.d.tokens {
		if rt.TokenHash == tokenHash {
			return &rt, nil
		}
	}
	return nil, ErrNotFound
}

func (q *memQueries) RotateRefreshToken(_ context.Context, oldID, newID, userID, newHash string, newExpiry time.Time) error {
	if old, ok := q.d.tokens[oldID]; ok {
		old.Revoked = true
		old.ReplacedBy = &newID
		q.d.tokens[oldID] = old
	}
	q.d.tokens[newID] = RefreshToken{ID: newID, UserID: userID, TokenHash: newHash, ExpiresAt: newExpiry, CreatedAt: q.now()}
	return nil
}

func (q *memQueries) RevokeAllRefreshTokens(_ context.Context, userID string) error {
	for id, rt := range q.d.tokens {
		if rt.UserID == userID && !rt.Revoked {
			rt.Revoked = true
			q.d.tokens[id] = rt
		}
	}
	return nil
}

func (q *memQueries) Preferences(_ context.Context, userID string) (*model.UserPreferences, error) {
	p, ok := q.d.prefs[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (q *memQueries) UpsertPreferences(_ context.Context, p *model.UserPreferences) error {
	if existing, ok := q.d.prefs[p.UserID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = q.now()
	}
	p.UpdatedAt = q.now()
	q.d.prefs[p.UserID] = *p
	return nil
}

func (q *memQueries) CreateGroup(_ context.Context, g *model.MedicationGroup) error {
	g.DisplayOrder = 0
	for _, other := range q.d.groups {
		if other.UserID == g.UserID && other.DisplayOrder >= g.DisplayOrder {
			g.DisplayOrder = other.DisplayOrder + 1
		}
	}
	g.CreatedAt, g.UpdatedAt = q.now(), q.now()
	q.d.groups[g.ID] = *g
	return nil
}

func (q *memQueries) GroupByID(_ context.Context, id string) (*model.MedicationGroup, error) {
	g, ok := q.d.groups[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &g, nil
}

func (q *memQueries) GroupsByIDs(_ context.Context, ids []string) ([]model.MedicationGroup, error) {
	var out []model.MedicationGroup
	for _, g := range q.d.groups {
		if slices.Contains(ids, g.ID) {
			out = append(out, g)
		}
	}
	slices.SortFunc(out, func(a, b model.MedicationGroup) int {
		return cmp.Or(
			cmp.Compare(a.DisplayOrder, b.DisplayOrder),
			a.CreatedAt.Compare(b.CreatedAt),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return out, nil
}

func (q *memQueries) OwnedGroupIDs(_ context.Context, ownerID string, ids []string) ([]string, error) {
	var out []string
	for _, id := range ids {
		if g, ok := q.d.groups[id]; ok && g.UserID == ownerID && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (q *memQueries) UpdateGroup(_ context.Context, g *model.MedicationGroup) error {
	existing, ok := q.d.groups[g.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Name, existing.Color, existing.Icon, existing.DisplayOrder = g.Name, g.Color, g.Icon, g.DisplayOrder
	existing.UpdatedAt = q.now()
	q.d.groups[g.ID] = existing
	*g = existing
	return nil
}

func (q *memQueries) DeleteGroup(ctx context.Context, id string) error {
	if _, ok := q.d.groups[id]; !ok {
		return ErrNotFound
	}
	delete(q.d.groups, id)
	for medID, m := range q.d.meds {
		if m.GroupID == id {
			_ = q.DeleteMedication(ctx, medID)
		}
	}
	for grantID, a := range q.d.grants {
		if a.GroupID == id {
			delete(q.d.grants, grantID)
		}
	}
	return nil
}

func (q *memQueries) GroupPermissions(_ context.Context, userID string) (map[string]bool, error) {
	perms := make(map[string]bool)
	for _, g := range q.d.groups {
		if g.UserID == userID {
			perms[g.ID] = true
		}
	}
	for _, a := range q.d.grants {
		if a.GrantedToID == userID {
			perms[a.GroupID] = perms[a.GroupID] || a.CanEdit
		}
	}
	return perms, nil
}

func (q *memQueries) CreateMedication(_ context.Context, m *model.Medication) error {
	if _, ok := q.d.groups[m.GroupID]; !ok {
		return ErrNotFound
	}
	m.CreatedAt, m.UpdatedAt = q.now(), q.now()
	q.d.meds[m.ID] = *m
	return nil
}

func (q *memQueries) MedicationByID(_ context.Context, id string) (*model.Medication, error) {
	m, ok := q.d.meds[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &m, nil
}

func (q *memQueries) MedicationsByGroups(_ context.Context, groupIDs []string) ([]model.Medication, error) {
	var out []model.Medication
	for _, m := range q.d.meds {
		if slices.Contains(groupIDs, m.GroupID) {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b model.Medication) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (q *memQueries) UpdateMedication(_ context.Context, m *model.Medication) error {
	existing, ok := q.d.meds[m.ID]
	if !ok {
		return ErrNotFound
	}
	m.GroupID, m.CreatedAt, m.UpdatedAt = existing.GroupID, existing.CreatedAt, q.now()
	q.d.meds[m.ID] = *m
	return nil
}

func (q *memQueries) DeleteMedication(_ context.Context, id string) error {
	if _, ok := q.d.meds[id]; !ok {
		return ErrNotFound
	}
	delete(q.d.meds, id)
	for doseID, d := range q.d.doses {
		if d.MedicationID == id {
			delete(q.d.doses, doseID)
		}
	}
	return nil
}

func (q *memQueries) CreateDose(_ context.Context, d *model.DoseRecord) error {
	if _, ok := q.d.meds[d.MedicationID]; !ok {
		return ErrNotFound
	}
	d.CreatedAt = q.now()
	inUTC(d)
	q.d.doses[d.ID] = *d
	return nil
}

func (q *memQueries) DoseByID(_ context.Context, id string) (*model.DoseRecord, error) {
	d, ok := q.d.doses[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (q *memQueries) DeleteDose(_ context.Context, id string) error {
	if _, ok := q.d.doses[id]; !ok {
		return ErrNotFound
	}
	delete(q.d.doses, id)
	return nil
}

func newestFirst(a, b model.DoseRecord) int {
	return cmp.Or(b.Timestamp.Compare(a.Timestamp), cmp.Compare(b.ID, a.ID))
}

func (q *memQueries) LatestDose(ctx context.Context, medicationID string, takenOnly bool) (*model.DoseRecord, error) {
	doses, _ := q.DosesByMedication(ctx, medicationID)
	for _, d := range doses {
		if takenOnly && d.Skipped {
			continue
		}
		return &d, nil
	}
	return nil, ErrNotFound
}

func (q *memQueries) DosesByMedication(_ context.Context, medicationID string) ([]model.DoseRecord, error) {
	var out []model.DoseRecord
	for _, d := range q.d.doses {
		if d.MedicationID == medicationID {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, newestFirst)
	return out, nil
}

func (q *memQueries) DosesInRange(_ context.Context, groupIDs []string, from, to time.Time) ([]model.DoseRecord, error) {
	var out []model.DoseRecord
	for _, d := range q.d.doses {
		m := q.d.meds[d.MedicationID]
		if !slices.Contains(groupIDs, m.GroupID) || d.Timestamp.Before(from) || d.Timestamp.After(to) {
			continue
		}
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b model.DoseRecord) int { return newestFirst(b, a) })
	return out, nil
}

func (q *memQueries) CreateAccessGrant(_ context.Context, g *model.AccessGrant) error {
	if _, ok := q.d.groups[g.GroupID]; !ok {
		return ErrNotFound
	}
	g.CreatedAt = q.now()
	q.d.grants[g.ID] = *g
	return nil
}

func (q *memQueries) AccessGrantByID(_ context.Context, id string) (*model.AccessGrant, error) {
	g, ok := q.d.grants[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &g, nil
}

func (q *memQueries) DeleteAccessGrant(_ context.Context, id string) error {
	if _, ok := q.d.grants[id]; !ok {
		return ErrNotFound
	}
	delete(q.d.grants, id)
	return nil
}

func (q *memQueries) ListAccessGrants(_ context.Context, userID string) ([]model.AccessGrantView, error) {
	var out []model.AccessGrantView
	for _, a := range q.d.grants {
		if a.GrantedByID != userID && a.GrantedToID != userID {
			continue
		}
		g := q.d.groups[a.GroupID]
		out = append(out, model.AccessGrantView{
			AccessGrant:    a,
			GrantedByEmail: q.d.users[a.GrantedByID].Email,
			GrantedToEmail: q.d.users[a.GrantedToID].Email,
			GroupName:      g.Name,
			GroupColor:     g.Color,
		})
	}
	slices.SortFunc(out, func(a, b model.AccessGrantView) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (q *memQueries) HistoryPage(_ context.Context, scope []string, f model.HistoryFilter) (*model.HistoryPage, error) {
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	search := strings.ToLower(f.Search)

	var matched []model.DoseEntry
	for _, d := range q.d.doses {
		m := q.d.meds[d.MedicationID]
		g := q.d.groups[m.GroupID]
		switch {
		case !slices.Contains(scope, g.ID),
			d.Timestamp.Before(f.StartDate), d.Timestamp.After(f.EndDate),
			len(f.GroupIDs) > 0 && !slices.Contains(f.GroupIDs, g.ID),
			len(f.MedicationIDs) > 0 && !slices.Contains(f.MedicationIDs, m.ID),
			f.Status == model.StatusTaken && d.Skipped,
			f.Status == model.StatusSkipped && !d.Skipped,
			f.TimeOfDay != "" && f.TimeOfDay != model.AnyTime && !f.TimeOfDay.Contains(d.Timestamp.In(loc).Hour()),
			search != "" && !strings.Contains(strings.ToLower(m.Name), search) && !strings.Contains(strings.ToLower(g.Name), search):
			continue
		}
		matched = append(matched, model.DoseEntry{
			DoseRecord:     d,
			MedicationName: m.Name,
			Dosage:         m.Dosage,
			Unit:           m.Unit,
			GroupID:        g.ID,
			GroupName:      g.Name,
			GroupColor:     g.Color,
		})
	}

	slices.SortFunc(matched, func(a, b model.DoseEntry) int {
		var c int
		switch f.SortField {
		case model.SortMedicationName:
			c = cmp.Compare(a.MedicationName, b.MedicationName)
		case model.SortDosage:
			c = cmp.Compare(a.Dosage, b.Dosage)
		case model.SortStatus:
			c = compareBool(a.Skipped, b.Skipped)
		default:
			c = a.Timestamp.Compare(b.Timestamp)
		}
		c = cmp.Or(c, cmp.Compare(a.ID, b.ID))
		if f.SortDirection != model.Asc {
			c = -c
		}
		return c
	})

	page := &model.HistoryPage{
		Page:       f.Page,
		Total:      len(matched),
		TotalPages: model.TotalPages(len(matched), f.Limit),
		Records:    []model.DoseEntry{},
	}
	start := min(f.Offset(), len(matched))
	end := min(start+f.Limit, len(matched))
	page.Records = append(page.Records, matched[start:end]...)
	return page, nil
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}
