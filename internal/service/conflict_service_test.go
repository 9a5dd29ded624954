package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/Z3r0J/togetherly-backend-sub000/internal/domain"
	"github.com/Z3r0J/togetherly-backend-sub000/internal/repository"
	outboxDomain "github.com/Z3r0J/togetherly-backend-sub000/pkg/outbox/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedFinalizedEvent(t *testing.T, env *testEnv, circleID int64, h int) *domain.Event {
	t.Helper()

	start, end := slot(h)
	event := &domain.Event{
		CircleID:  circleID,
		CreatorID: 1,
		Title:     fmt.Sprintf("circle %d meetup", circleID),
		Status:    domain.EventStatusFinalized,
		StartsAt:  &start,
		EndsAt:    &end,
	}
	require.NoError(t, env.eventRepo.Create(context.Background(), event))
	return event
}

func TestResolveMemberPersonalOverlap(t *testing.T) {
	env := newTestEnv()
	event := seedFinalizedEvent(t, env, 1, 14)

	ctx := context.Background()
	start, end := slot(14)

	require.NoError(t, env.personalRepo.Create(ctx, &domain.PersonalEvent{
		UserID:    2,
		Title:     "dentist",
		StartTime: start.Add(30 * time.Minute),
		EndTime:   end.Add(time.Hour),
	}))

	require.NoError(t, env.conflicts.ResolveMember(ctx, event, 2))

	rsvp, err := env.rsvpRepo.FindByEventAndUser(ctx, event.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.RsvpStatusNotGoing, rsvp.Status)

	assert.Len(t, env.notifications.byType(2, domain.NotificationTypeEventConflict), 1)
	assert.Len(t, env.outbox.byType(outboxDomain.EventTypePushNotification), 1)
}

func TestResolveMemberBoundaryTouchIsNotConflict(t *testing.T) {
	env := newTestEnv()
	event := seedFinalizedEvent(t, env, 1, 14)

	ctx := context.Background()
	_, end := slot(14)

	// Personal event starts exactly when the circle event ends.
	require.NoError(t, env.personalRepo.Create(ctx, &domain.PersonalEvent{
		UserID:    2,
		Title:     "gym",
		StartTime: end,
		EndTime:   end.Add(time.Hour),
	}))

	require.NoError(t, env.conflicts.ResolveMember(ctx, event, 2))

	_, err := env.rsvpRepo.FindByEventAndUser(ctx, event.ID, 2)
	assert.ErrorIs(t, err, repository.ErrRsvpNotFound)
	assert.Empty(t, env.notifications.byType(2, domain.NotificationTypeEventConflict))
}

func TestResolveMemberKeepsManualRsvp(t *testing.T) {
	env := newTestEnv()
	event := seedFinalizedEvent(t, env, 1, 14)

	ctx := context.Background()
	start, end := slot(14)

	require.NoError(t, env.personalRepo.Create(ctx, &domain.PersonalEvent{
		UserID:    2,
		Title:     "dentist",
		StartTime: start,
		EndTime:   end,
	}))

	require.NoError(t, env.rsvpRepo.Upsert(ctx, &domain.Rsvp{
		EventID: event.ID,
		UserID:  2,
		Status:  domain.RsvpStatusGoing,
	}))

	require.NoError(t, env.conflicts.ResolveMember(ctx, event, 2))

	rsvp, err := env.rsvpRepo.FindByEventAndUser(ctx, event.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.RsvpStatusGoing, rsvp.Status)
	assert.Empty(t, env.notifications.byType(2, domain.NotificationTypeEventConflict))
}

func TestResolveMemberCrossCircleCommitment(t *testing.T) {
	env := newTestEnv()

	other := seedFinalizedEvent(t, env, 2, 14)
	require.NoError(t, env.rsvpRepo.Upsert(context.Background(), &domain.Rsvp{
		EventID: other.ID,
		UserID:  5,
		Status:  domain.RsvpStatusGoing,
	}))

	event := seedFinalizedEvent(t, env, 1, 14)

	require.NoError(t, env.conflicts.ResolveMember(context.Background(), event, 5))

	rsvp, err := env.rsvpRepo.FindByEventAndUser(context.Background(), event.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, domain.RsvpStatusNotGoing, rsvp.Status)
}

func TestResolveMemberIgnoresNonGoingCommitments(t *testing.T) {
	env := newTestEnv()

	other := seedFinalizedEvent(t, env, 2, 14)
	require.NoError(t, env.rsvpRepo.Upsert(context.Background(), &domain.Rsvp{
		EventID: other.ID,
		UserID:  5,
		Status:  domain.RsvpStatusMaybe,
	}))

	event := seedFinalizedEvent(t, env, 1, 14)

	require.NoError(t, env.conflicts.ResolveMember(context.Background(), event, 5))

	_, err := env.rsvpRepo.FindByEventAndUser(context.Background(), event.ID, 5)
	assert.ErrorIs(t, err, repository.ErrRsvpNotFound)
}

func TestResolveMemberIgnoresCancelledPersonalEvents(t *testing.T) {
	env := newTestEnv()
	event := seedFinalizedEvent(t, env, 1, 14)

	ctx := context.Background()
	start, end := slot(14)

	personal := &domain.PersonalEvent{
		UserID:    2,
		Title:     "dentist",
		StartTime: start,
		EndTime:   end,
	}
	require.NoError(t, env.personalRepo.Create(ctx, personal))
	require.NoError(t, env.personalRepo.Cancel(ctx, personal.ID, 2))

	require.NoError(t, env.conflicts.ResolveMember(ctx, event, 2))

	_, err := env.rsvpRepo.FindByEventAndUser(ctx, event.ID, 2)
	assert.ErrorIs(t, err, repository.ErrRsvpNotFound)
}

func TestHandleProcessConflictsIdempotent(t *testing.T) {
	env := newTestEnv()

	env.circleRepo.addCircle(&domain.Circle{ID: 1, Name: "book club", OwnerID: 1})
	env.circleRepo.addMember(1, 1, domain.CircleRoleOwner)
	env.circleRepo.addMember(1, 2, domain.CircleRoleMember)

	event := seedFinalizedEvent(t, env, 1, 14)

	ctx := context.Background()
	start, end := slot(14)

	require.NoError(t, env.personalRepo.Create(ctx, &domain.PersonalEvent{
		UserID:    2,
		Title:     "dentist",
		StartTime: start,
		EndTime:   end,
	}))

	payload, err := json.Marshal(outboxDomain.ProcessConflictsPayload{
		EventID:  event.ID,
		CircleID: 1,
	})
	require.NoError(t, err)

	require.NoError(t, env.conflicts.HandleProcessConflicts(ctx, payload))
	require.NoError(t, env.conflicts.HandleProcessConflicts(ctx, payload))

	rsvp, err := env.rsvpRepo.FindByEventAndUser(ctx, event.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.RsvpStatusNotGoing, rsvp.Status)

	assert.Len(t, env.notifications.byType(2, domain.NotificationTypeEventConflict), 1)
}

func TestHandleProcessConflictsSkipsUncommittedEvent(t *testing.T) {
	env := newTestEnv()

	env.circleRepo.addCircle(&domain.Circle{ID: 1, Name: "book club", OwnerID: 1})
	env.circleRepo.addMember(1, 1, domain.CircleRoleOwner)

	event := &domain.Event{
		CircleID:  1,
		CreatorID: 1,
		Title:     "undecided meetup",
		Status:    domain.EventStatusDraft,
	}
	require.NoError(t, env.eventRepo.Create(context.Background(), event))

	payload, err := json.Marshal(outboxDomain.ProcessConflictsPayload{
		EventID:  event.ID,
		CircleID: 1,
	})
	require.NoError(t, err)

	assert.NoError(t, env.conflicts.HandleProcessConflicts(context.Background(), payload))
}

func TestHandleProcessConflictsBadPayload(t *testing.T) {
	env := newTestEnv()

	err := env.conflicts.HandleProcessConflicts(context.Background(), json.RawMessage(`{`))
	assert.Error(t, err)
}
