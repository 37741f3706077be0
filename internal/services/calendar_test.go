package services

import (
	"sync"
	"testing"

	"github.com/chronograph-app/chronograph/internal/apperr"
	"github.com/chronograph-app/chronograph/internal/models"
)

func TestCreateCalendarBootstrapsOwnerMembership(t *testing.T) {
	gdb := newTestDB(t)
	owner := createUser(t, gdb, "alice")

	calendar, err := NewCalendarService(gdb).Create(CalendarInput{Name: "Work"}, owner.ID)
	if err != nil {
		t.Fatal(err)
	}

	if calendar.Visibility != models.VisibilityPrivate {
		t.Fatalf("default visibility = %s, want PRIVATE", calendar.Visibility)
	}

	var membership models.CalendarMembership
	if err := gdb.Where("calendar_id = ? AND user_id = ?", calendar.ID, owner.ID).First(&membership).Error; err != nil {
		t.Fatalf("owner membership missing: %v", err)
	}
	if membership.Role != models.RoleOwner {
		t.Fatalf("owner membership role = %s, want OWNER", membership.Role)
	}
}

func TestCreateCalendarRejectsInvalidVisibility(t *testing.T) {
	gdb := newTestDB(t)
	owner := createUser(t, gdb, "alice")

	_, err := NewCalendarService(gdb).Create(CalendarInput{Name: "X", Visibility: "SECRET"}, owner.ID)
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFindByIDVisibility(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewCalendarService(gdb)
	owner := createUser(t, gdb, "alice")
	stranger := createUser(t, gdb, "bob")

	private := createCalendar(t, gdb, owner, models.VisibilityPrivate)
	public := createCalendar(t, gdb, owner, models.VisibilityPublic)

	if _, err := svc.FindByID(private.ID, owner.ID); err != nil {
		t.Fatalf("owner should read own private calendar: %v", err)
	}
	if _, err := svc.FindByID(public.ID, stranger.ID); err != nil {
		t.Fatalf("stranger should read public calendar: %v", err)
	}

	_, err := svc.FindByID(private.ID, stranger.ID)
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden for private calendar, got %v", err)
	}

	_, err = svc.FindByID(9999, owner.ID)
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFindParticipatingExcludesOwned(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewCalendarService(gdb)
	owner := createUser(t, gdb, "alice")
	member := createUser(t, gdb, "bob")

	calendar := createCalendar(t, gdb, owner, models.VisibilityShared)
	createCalendar(t, gdb, member, models.VisibilityPrivate)

	if err := gdb.Create(&models.CalendarMembership{
		CalendarID: calendar.ID,
		UserID:     member.ID,
		Role:       models.RoleMember,
	}).Error; err != nil {
		t.Fatal(err)
	}

	participating, err := svc.FindParticipating(member.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(participating) != 1 || participating[0].ID != calendar.ID {
		t.Fatalf("unexpected participating calendars: %+v", participating)
	}

	// The owner holds a membership too but owns the calendar, so it is not
	// a "participating" calendar for them.
	participating, err = svc.FindParticipating(owner.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(participating) != 0 {
		t.Fatalf("owner should not participate in own calendar: %+v", participating)
	}
}

func TestFindPublicPagination(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewCalendarService(gdb)
	owner := createUser(t, gdb, "alice")

	for i := 0; i < 5; i++ {
		createCalendar(t, gdb, owner, models.VisibilityPublic)
	}
	createCalendar(t, gdb, owner, models.VisibilityPrivate)

	page, err := svc.FindPublic(PublicCalendarQuery{Page: 1, Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if page.Meta.TotalItems != 5 {
		t.Fatalf("total = %d, want 5", page.Meta.TotalItems)
	}
	if len(page.Items) != 2 || page.Meta.ItemCount != 2 {
		t.Fatalf("page 1 size = %d, want 2", len(page.Items))
	}

	page, err = svc.FindPublic(PublicCalendarQuery{Page: 3, Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("page 3 size = %d, want 1", len(page.Items))
	}
}

func TestParticipatePublicOnly(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewCalendarService(gdb)
	owner := createUser(t, gdb, "alice")
	joiner := createUser(t, gdb, "bob")

	public := createCalendar(t, gdb, owner, models.VisibilityPublic)
	private := createCalendar(t, gdb, owner, models.VisibilityPrivate)

	membership, err := svc.Participate(public.ID, joiner.ID)
	if err != nil {
		t.Fatal(err)
	}
	if membership.Role != models.RoleMember {
		t.Fatalf("joined with role %s, want MEMBER", membership.Role)
	}

	if _, err := svc.Participate(public.ID, joiner.ID); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict on double join, got %v", err)
	}

	if _, err := svc.Participate(private.ID, joiner.ID); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden for private calendar, got %v", err)
	}
}

// Simultaneous joins must leave one membership row; the loser gets the same
// conflict whether it loses at the membership check or at the unique index.
func TestParticipateConcurrentJoins(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewCalendarService(gdb)
	owner := createUser(t, gdb, "alice")
	joiner := createUser(t, gdb, "bob")

	public := createCalendar(t, gdb, owner, models.VisibilityPublic)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Participate(public.ID, joiner.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, conflicted int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case apperr.KindOf(err) == apperr.KindConflict:
			conflicted++
		default:
			t.Fatalf("unexpected join error: %v", err)
		}
	}
	if succeeded != 1 || conflicted != 1 {
		t.Fatalf("got %d successes and %d conflicts, want exactly one of each", succeeded, conflicted)
	}

	var count int64
	gdb.Model(&models.CalendarMembership{}).
		Where("calendar_id = ? AND user_id = ?", public.ID, joiner.ID).
		Count(&count)
	if count != 1 {
		t.Fatalf("expected one membership row, got %d", count)
	}
}

func TestUpdateCalendarOwnerOnly(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewCalendarService(gdb)
	owner := createUser(t, gdb, "alice")
	stranger := createUser(t, gdb, "bob")

	calendar := createCalendar(t, gdb, owner, models.VisibilityPrivate)

	updated, err := svc.Update(calendar.ID, owner.ID, UpdateCalendarInput{Name: "Renamed", Visibility: models.VisibilityPublic})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "Renamed" || updated.Visibility != models.VisibilityPublic {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	if _, err := svc.Update(calendar.ID, stranger.ID, UpdateCalendarInput{Name: "Hijacked"}); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}
}

func TestDeleteCalendar(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewCalendarService(gdb)
	owner := createUser(t, gdb, "alice")

	calendar := createCalendar(t, gdb, owner, models.VisibilityPrivate)

	if err := svc.Delete(calendar.ID, owner.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.FindByID(calendar.ID, owner.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("deleted calendar still readable: %v", err)
	}

	var count int64
	gdb.Model(&models.CalendarMembership{}).Where("calendar_id = ?", calendar.ID).Count(&count)
	if count != 0 {
		t.Fatalf("memberships survived delete: %d", count)
	}
}

func TestDeleteMainCalendarForbidden(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewCalendarService(gdb)
	owner := createUser(t, gdb, "alice")

	main := createMainCalendar(t, gdb, owner)

	if err := svc.Delete(main.ID, owner.ID); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden for main calendar, got %v", err)
	}

	if _, err := svc.FindByID(main.ID, owner.ID); err != nil {
		t.Fatalf("main calendar should survive: %v", err)
	}
}
