package services

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chronograph-app/chronograph/internal/apperr"
	"github.com/chronograph-app/chronograph/internal/models"
)

type recordingNotifier struct {
	calendarMails chan string
	eventMails    chan string
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{
		calendarMails: make(chan string, 1),
		eventMails:    make(chan string, 1),
	}
}

func (n *recordingNotifier) SendCalendarInvitation(to, inviterName, calendarName, acceptLink, declineLink string) error {
	n.calendarMails <- acceptLink
	return nil
}

func (n *recordingNotifier) SendEventInvitation(to, inviterName, eventName, acceptLink, declineLink string) error {
	n.eventMails <- acceptLink
	return nil
}

func TestInviteToCalendar(t *testing.T) {
	gdb := newTestDB(t)
	notifier := newRecordingNotifier()
	svc := NewInvitationService(gdb, notifier, "http://client")
	owner := createUser(t, gdb, "alice")
	invitee := createUser(t, gdb, "bob")

	calendar := createCalendar(t, gdb, owner, models.VisibilityPrivate)

	invitation, err := svc.InviteToCalendar(calendar.ID, invitee.Email, owner.ID)
	if err != nil {
		t.Fatal(err)
	}
	if invitation.Status != models.InvitationPending {
		t.Fatalf("status = %s, want PENDING", invitation.Status)
	}
	if invitation.Token == "" {
		t.Fatal("invitation has no token")
	}

	select {
	case link := <-notifier.calendarMails:
		if !strings.Contains(link, invitation.Token) {
			t.Fatalf("mailed link %q does not carry the token", link)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("notification never sent")
	}
}

func TestInviteToCalendarGuards(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewInvitationService(gdb, nil, "http://client")
	owner := createUser(t, gdb, "alice")
	invitee := createUser(t, gdb, "bob")

	calendar := createCalendar(t, gdb, owner, models.VisibilityPrivate)

	if _, err := svc.InviteToCalendar(calendar.ID, invitee.Email, invitee.ID); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden for non-owner inviter, got %v", err)
	}
	if _, err := svc.InviteToCalendar(calendar.ID, "ghost@example.com", owner.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found for unknown invitee, got %v", err)
	}
	if _, err := svc.InviteToCalendar(9999, invitee.Email, owner.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found for unknown calendar, got %v", err)
	}

	// Existing members cannot be re-invited.
	if err := gdb.Create(&models.CalendarMembership{
		CalendarID: calendar.ID,
		UserID:     invitee.ID,
		Role:       models.RoleMember,
	}).Error; err != nil {
		t.Fatal(err)
	}
	if _, err := svc.InviteToCalendar(calendar.ID, invitee.Email, owner.ID); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict for existing member, got %v", err)
	}
}

func TestReinviteReplacesInvitation(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewInvitationService(gdb, nil, "http://client")
	owner := createUser(t, gdb, "alice")
	invitee := createUser(t, gdb, "bob")

	calendar := createCalendar(t, gdb, owner, models.VisibilityPrivate)

	first, err := svc.InviteToCalendar(calendar.ID, invitee.Email, owner.ID)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.DeclineCalendarInvitation(first.ID, invitee.ID); err != nil {
		t.Fatal(err)
	}

	second, err := svc.InviteToCalendar(calendar.ID, invitee.Email, owner.ID)
	if err != nil {
		t.Fatal(err)
	}

	if second.ID == first.ID {
		t.Fatal("re-invite reused the old row")
	}
	if second.Token == first.Token {
		t.Fatal("re-invite reused the old token")
	}
	if second.Status != models.InvitationPending {
		t.Fatalf("re-invite status = %s, want PENDING", second.Status)
	}

	// The superseded invitation is gone outright, so its old link is dead.
	if _, err := svc.FindCalendarInvitationByToken(first.Token); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected old token to stop resolving, got %v", err)
	}

	var count int64
	gdb.Unscoped().Model(&models.CalendarInvitation{}).
		Where("calendar_id = ? AND user_id = ?", calendar.ID, invitee.ID).
		Count(&count)
	if count != 1 {
		t.Fatalf("expected one physical invitation row, got %d", count)
	}
}

func TestAcceptCalendarInvitation(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewInvitationService(gdb, nil, "http://client")
	owner := createUser(t, gdb, "alice")
	invitee := createUser(t, gdb, "bob")

	calendar := createCalendar(t, gdb, owner, models.VisibilityPrivate)

	invitation, err := svc.InviteToCalendar(calendar.ID, invitee.Email, owner.ID)
	if err != nil {
		t.Fatal(err)
	}

	accepted, err := svc.AcceptCalendarInvitation(invitation.ID, invitee.ID)
	if err != nil {
		t.Fatal(err)
	}
	if accepted.Status != models.InvitationAccepted {
		t.Fatalf("status = %s, want ACCEPTED", accepted.Status)
	}

	var membership models.CalendarMembership
	if err := gdb.Where("calendar_id = ? AND user_id = ?", calendar.ID, invitee.ID).First(&membership).Error; err != nil {
		t.Fatalf("membership missing after accept: %v", err)
	}
	if membership.Role != models.RoleMember {
		t.Fatalf("membership role = %s, want MEMBER", membership.Role)
	}

	// First accepted member promotes PRIVATE to SHARED.
	var refreshed models.Calendar
	if err := gdb.First(&refreshed, calendar.ID).Error; err != nil {
		t.Fatal(err)
	}
	if refreshed.Visibility != models.VisibilityShared {
		t.Fatalf("visibility = %s, want SHARED", refreshed.Visibility)
	}
}

func TestAcceptCalendarInvitationSingleWinner(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewInvitationService(gdb, nil, "http://client")
	owner := createUser(t, gdb, "alice")
	invitee := createUser(t, gdb, "bob")

	calendar := createCalendar(t, gdb, owner, models.VisibilityPrivate)

	invitation, err := svc.InviteToCalendar(calendar.ID, invitee.Email, owner.ID)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.AcceptCalendarInvitation(invitation.ID, invitee.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.AcceptCalendarInvitation(invitation.ID, invitee.ID); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict on second accept, got %v", err)
	}
	if _, err := svc.DeclineCalendarInvitation(invitation.ID, invitee.ID); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict on decline after accept, got %v", err)
	}
}

// Two accepts racing on the same invitation: the conditional status flip lets
// exactly one transaction through, so only one membership row may appear.
func TestAcceptCalendarInvitationConcurrent(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewInvitationService(gdb, nil, "http://client")
	owner := createUser(t, gdb, "alice")
	invitee := createUser(t, gdb, "bob")

	calendar := createCalendar(t, gdb, owner, models.VisibilityPrivate)

	invitation, err := svc.InviteToCalendar(calendar.ID, invitee.Email, owner.ID)
	if err != nil {
		t.Fatal(err)
	}

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AcceptCalendarInvitation(invitation.ID, invitee.ID)
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
			t.Fatalf("unexpected accept error: %v", err)
		}
	}
	if succeeded != 1 || conflicted != 1 {
		t.Fatalf("got %d successes and %d conflicts, want exactly one of each", succeeded, conflicted)
	}

	var refreshed models.CalendarInvitation
	if err := gdb.First(&refreshed, invitation.ID).Error; err != nil {
		t.Fatal(err)
	}
	if refreshed.Status != models.InvitationAccepted {
		t.Fatalf("status = %s, want ACCEPTED", refreshed.Status)
	}

	var count int64
	gdb.Model(&models.CalendarMembership{}).
		Where("calendar_id = ? AND user_id = ?", calendar.ID, invitee.ID).
		Count(&count)
	if count != 1 {
		t.Fatalf("expected one membership row, got %d", count)
	}
}

func TestRespondToForeignInvitationForbidden(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewInvitationService(gdb, nil, "http://client")
	owner := createUser(t, gdb, "alice")
	invitee := createUser(t, gdb, "bob")
	intruder := createUser(t, gdb, "mallory")

	calendar := createCalendar(t, gdb, owner, models.VisibilityPrivate)

	invitation, err := svc.InviteToCalendar(calendar.ID, invitee.Email, owner.ID)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.AcceptCalendarInvitation(invitation.ID, intruder.ID); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden for foreign accept, got %v", err)
	}

	// The invitation stays pending for the real invitee.
	pending, err := svc.MyCalendarInvitations(invitee.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one pending invitation, got %d", len(pending))
	}
}

func TestDeclineLeavesNoMembership(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewInvitationService(gdb, nil, "http://client")
	owner := createUser(t, gdb, "alice")
	invitee := createUser(t, gdb, "bob")

	calendar := createCalendar(t, gdb, owner, models.VisibilityPrivate)

	invitation, err := svc.InviteToCalendar(calendar.ID, invitee.Email, owner.ID)
	if err != nil {
		t.Fatal(err)
	}

	declined, err := svc.DeclineCalendarInvitation(invitation.ID, invitee.ID)
	if err != nil {
		t.Fatal(err)
	}
	if declined.Status != models.InvitationDeclined {
		t.Fatalf("status = %s, want DECLINED", declined.Status)
	}

	var count int64
	gdb.Model(&models.CalendarMembership{}).
		Where("calendar_id = ? AND user_id = ?", calendar.ID, invitee.ID).
		Count(&count)
	if count != 0 {
		t.Fatalf("decline created a membership: %d", count)
	}

	var refreshed models.Calendar
	if err := gdb.First(&refreshed, calendar.ID).Error; err != nil {
		t.Fatal(err)
	}
	if refreshed.Visibility != models.VisibilityPrivate {
		t.Fatalf("decline changed visibility to %s", refreshed.Visibility)
	}
}

func TestAcceptEventInvitationUsesMainCalendar(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewInvitationService(gdb, nil, "http://client")
	events := NewEventService(gdb)
	owner := createUser(t, gdb, "alice")
	invitee := createUser(t, gdb, "bob")

	calendar := createCalendar(t, gdb, owner, models.VisibilityPrivate)
	main := createMainCalendar(t, gdb, invitee)

	event, err := events.Create(EventInput{
		Name:       "Standup",
		StartAt:    time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC),
		Category:   models.CategoryReminder,
		CalendarID: calendar.ID,
	}, owner.ID)
	if err != nil {
		t.Fatal(err)
	}

	invitation, err := svc.InviteToEvent(event.ID, invitee.Email, owner.ID)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.AcceptEventInvitation(invitation.ID, invitee.ID); err != nil {
		t.Fatal(err)
	}

	var membership models.EventMembership
	if err := gdb.Where("event_id = ? AND user_id = ?", event.ID, invitee.ID).First(&membership).Error; err != nil {
		t.Fatalf("event membership missing after accept: %v", err)
	}
	if membership.CalendarID != main.ID {
		t.Fatalf("membership calendar = %d, want invitee's main calendar %d", membership.CalendarID, main.ID)
	}
	if membership.Role != models.RoleMember {
		t.Fatalf("membership role = %s, want MEMBER", membership.Role)
	}
}

func TestAcceptEventInvitationWithoutMainCalendar(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewInvitationService(gdb, nil, "http://client")
	events := NewEventService(gdb)
	owner := createUser(t, gdb, "alice")
	invitee := createUser(t, gdb, "bob")

	calendar := createCalendar(t, gdb, owner, models.VisibilityPrivate)

	event, err := events.Create(EventInput{
		Name:       "Standup",
		StartAt:    time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC),
		Category:   models.CategoryReminder,
		CalendarID: calendar.ID,
	}, owner.ID)
	if err != nil {
		t.Fatal(err)
	}

	invitation, err := svc.InviteToEvent(event.ID, invitee.Email, owner.ID)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.AcceptEventInvitation(invitation.ID, invitee.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found without a main calendar, got %v", err)
	}

	// The failed accept rolled back; the invitation is still pending.
	pending, err := svc.MyEventInvitations(invitee.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected invitation to stay pending, got %d", len(pending))
	}
}

func TestCalendarInvitationListings(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewInvitationService(gdb, nil, "http://client")
	owner := createUser(t, gdb, "alice")
	invitee := createUser(t, gdb, "bob")

	calendar := createCalendar(t, gdb, owner, models.VisibilityPrivate)

	invitation, err := svc.InviteToCalendar(calendar.ID, invitee.Email, owner.ID)
	if err != nil {
		t.Fatal(err)
	}

	all, err := svc.CalendarInvitations(calendar.ID, owner.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].ID != invitation.ID {
		t.Fatalf("unexpected owner listing: %+v", all)
	}

	if _, err := svc.CalendarInvitations(calendar.ID, invitee.ID); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden for non-owner listing, got %v", err)
	}

	pending, err := svc.MyCalendarInvitations(invitee.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].Calendar.ID != calendar.ID {
		t.Fatalf("unexpected pending listing: %+v", pending)
	}

	// Responding removes the invitation from the pending view.
	if _, err := svc.AcceptCalendarInvitation(invitation.ID, invitee.ID); err != nil {
		t.Fatal(err)
	}
	pending, err = svc.MyCalendarInvitations(invitee.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Fatalf("accepted invitation still pending: %+v", pending)
	}
}

func TestFindInvitationByToken(t *testing.T) {
	gdb := newTestDB(t)
	svc := NewInvitationService(gdb, nil, "http://client")
	owner := createUser(t, gdb, "alice")
	invitee := createUser(t, gdb, "bob")

	calendar := createCalendar(t, gdb, owner, models.VisibilityPrivate)

	invitation, err := svc.InviteToCalendar(calendar.ID, invitee.Email, owner.ID)
	if err != nil {
		t.Fatal(err)
	}

	found, err := svc.FindCalendarInvitationByToken(invitation.Token)
	if err != nil {
		t.Fatal(err)
	}
	if found.ID != invitation.ID || found.Calendar.ID != calendar.ID {
		t.Fatalf("unexpected resolution: %+v", found)
	}

	if _, err := svc.FindCalendarInvitationByToken("no-such-token"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found for unknown token, got %v", err)
	}
}
