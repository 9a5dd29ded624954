package service

import (
	"context"
	"sync"
	"time"

	"github.com/Z3r0J/togetherly-backend-sub000/internal/domain"
	"github.com/Z3r0J/togetherly-backend-sub000/internal/repository"
	outboxDomain "github.com/Z3r0J/togetherly-backend-sub000/pkg/outbox/domain"
	"go.uber.org/zap"
)

// In-memory fakes of the storage ports, enough to drive the scheduling
// services without Postgres.

type fakeEventRepo struct {
	mu     sync.Mutex
	nextID int64
	events map[int64]*domain.Event
	rsvps  *fakeRsvpRepo
}

func newFakeEventRepo(rsvps *fakeRsvpRepo) *fakeEventRepo {
	return &fakeEventRepo{events: make(map[int64]*domain.Event), rsvps: rsvps}
}

func (r *fakeEventRepo) Create(_ context.Context, event *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	event.ID = r.nextID
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	copied := *event
	r.events[event.ID] = &copied
	return nil
}

func (r *fakeEventRepo) FindByID(_ context.Context, eventID int64) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, ok := r.events[eventID]
	if !ok {
		return nil, repository.ErrEventNotFound
	}
	copied := *event
	return &copied, nil
}

func (r *fakeEventRepo) ListByCircle(_ context.Context, circleID int64) ([]*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var events []*domain.Event
	for _, event := range r.events {
		if event.CircleID == circleID {
			copied := *event
			events = append(events, &copied)
		}
	}
	return events, nil
}

func (r *fakeEventRepo) CommitTime(_ context.Context, eventID int64, status domain.EventStatus, startsAt, endsAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, ok := r.events[eventID]
	if !ok {
		return repository.ErrEventNotFound
	}
	event.Status = status
	event.StartsAt = &startsAt
	event.EndsAt = &endsAt
	event.UpdatedAt = time.Now()
	return nil
}

func (r *fakeEventRepo) Update(_ context.Context, event *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[event.ID]; !ok {
		return repository.ErrEventNotFound
	}
	copied := *event
	r.events[event.ID] = &copied
	return nil
}

func (r *fakeEventRepo) ListGoingCommitments(_ context.Context, userID, excludeEventID, excludeCircleID int64) ([]*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var events []*domain.Event
	for _, event := range r.events {
		if event.ID == excludeEventID || event.CircleID == excludeCircleID {
			continue
		}
		if event.StartsAt == nil || event.EndsAt == nil {
			continue
		}
		if !r.rsvps.has(event.ID, userID, domain.RsvpStatusGoing) {
			continue
		}
		copied := *event
		events = append(events, &copied)
	}
	return events, nil
}

type fakeOptionRepo struct {
	mu      sync.Mutex
	nextID  int64
	options map[int64]*domain.TimeOption
	votes   *fakeVoteRepo
}

func newFakeOptionRepo(votes *fakeVoteRepo) *fakeOptionRepo {
	return &fakeOptionRepo{options: make(map[int64]*domain.TimeOption), votes: votes}
}

func (r *fakeOptionRepo) CreateBatch(_ context.Context, options []*domain.TimeOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, option := range options {
		r.nextID++
		option.ID = r.nextID
		copied := *option
		r.options[option.ID] = &copied
	}
	return nil
}

func (r *fakeOptionRepo) FindByID(_ context.Context, optionID int64) (*domain.TimeOption, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	option, ok := r.options[optionID]
	if !ok {
		return nil, repository.ErrOptionNotFound
	}
	copied := *option
	return &copied, nil
}

func (r *fakeOptionRepo) ListByEvent(_ context.Context, eventID int64) ([]*domain.TimeOption, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var options []*domain.TimeOption
	for _, option := range r.options {
		if option.EventID == eventID {
			copied := *option
			options = append(options, &copied)
		}
	}
	return options, nil
}

func (r *fakeOptionRepo) ListTallies(_ context.Context, eventID int64) ([]domain.OptionTally, error) {
	options, _ := r.ListByEvent(nil, eventID)

	var tallies []domain.OptionTally
	for _, option := range options {
		tallies = append(tallies, domain.OptionTally{
			Option:    *option,
			VoteCount: r.votes.countForOption(eventID, option.ID),
		})
	}
	return tallies, nil
}

type fakeVoteRepo struct {
	mu sync.Mutex
	// event id -> voter id -> option id
	votes map[int64]map[int64]int64
}

func newFakeVoteRepo() *fakeVoteRepo {
	return &fakeVoteRepo{votes: make(map[int64]map[int64]int64)}
}

func (r *fakeVoteRepo) ReplaceVote(_ context.Context, eventID, optionID, voterID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.votes[eventID] == nil {
		r.votes[eventID] = make(map[int64]int64)
	}
	r.votes[eventID][voterID] = optionID
	return nil
}

func (r *fakeVoteRepo) CountByEvent(_ context.Context, eventID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.votes[eventID]), nil
}

func (r *fakeVoteRepo) countForOption(eventID, optionID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int
	for _, voted := range r.votes[eventID] {
		if voted == optionID {
			count++
		}
	}
	return count
}

type rsvpKey struct {
	eventID int64
	userID  int64
}

type fakeRsvpRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[rsvpKey]*domain.Rsvp
}

func newFakeRsvpRepo() *fakeRsvpRepo {
	return &fakeRsvpRepo{rows: make(map[rsvpKey]*domain.Rsvp)}
}

func (r *fakeRsvpRepo) Upsert(_ context.Context, rsvp *domain.Rsvp) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := rsvpKey{rsvp.EventID, rsvp.UserID}
	if existing, ok := r.rows[key]; ok {
		existing.Status = rsvp.Status
		existing.UpdatedAt = time.Now()
		rsvp.ID = existing.ID
		return nil
	}

	r.nextID++
	rsvp.ID = r.nextID
	copied := *rsvp
	r.rows[key] = &copied
	return nil
}

func (r *fakeRsvpRepo) CreateIfAbsent(_ context.Context, rsvp *domain.Rsvp) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := rsvpKey{rsvp.EventID, rsvp.UserID}
	if _, ok := r.rows[key]; ok {
		return false, nil
	}

	r.nextID++
	rsvp.ID = r.nextID
	copied := *rsvp
	r.rows[key] = &copied
	return true, nil
}

func (r *fakeRsvpRepo) FindByEventAndUser(_ context.Context, eventID, userID int64) (*domain.Rsvp, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rsvp, ok := r.rows[rsvpKey{eventID, userID}]
	if !ok {
		return nil, repository.ErrRsvpNotFound
	}
	copied := *rsvp
	return &copied, nil
}

func (r *fakeRsvpRepo) has(eventID, userID int64, status domain.RsvpStatus) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rsvp, ok := r.rows[rsvpKey{eventID, userID}]
	return ok && rsvp.Status == status
}

type fakePersonalRepo struct {
	mu     sync.Mutex
	nextID int64
	events map[int64]*domain.PersonalEvent
}

func newFakePersonalRepo() *fakePersonalRepo {
	return &fakePersonalRepo{events: make(map[int64]*domain.PersonalEvent)}
}

func (r *fakePersonalRepo) Create(_ context.Context, event *domain.PersonalEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	event.ID = r.nextID
	copied := *event
	r.events[event.ID] = &copied
	return nil
}

func (r *fakePersonalRepo) ListActive(_ context.Context, userID int64) ([]*domain.PersonalEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var events []*domain.PersonalEvent
	for _, event := range r.events {
		if event.UserID == userID && !event.Cancelled {
			copied := *event
			events = append(events, &copied)
		}
	}
	return events, nil
}

func (r *fakePersonalRepo) Cancel(_ context.Context, eventID, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, ok := r.events[eventID]
	if !ok || event.UserID != userID {
		return repository.ErrEventNotFound
	}
	event.Cancelled = true
	return nil
}

type fakeCircleRepo struct {
	mu      sync.Mutex
	circles map[int64]*domain.Circle
	members map[int64][]*domain.CircleMember
}

func newFakeCircleRepo() *fakeCircleRepo {
	return &fakeCircleRepo{
		circles: make(map[int64]*domain.Circle),
		members: make(map[int64][]*domain.CircleMember),
	}
}

func (r *fakeCircleRepo) addCircle(circle *domain.Circle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.circles[circle.ID] = circle
}

func (r *fakeCircleRepo) addMember(circleID, userID int64, role domain.CircleRole) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[circleID] = append(r.members[circleID], &domain.CircleMember{
		CircleID: circleID,
		UserID:   userID,
		Role:     role,
	})
}

func (r *fakeCircleRepo) FindByID(_ context.Context, circleID int64) (*domain.Circle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	circle, ok := r.circles[circleID]
	if !ok {
		return nil, repository.ErrCircleNotFound
	}
	return circle, nil
}

func (r *fakeCircleRepo) ListMembers(_ context.Context, circleID int64) ([]*domain.CircleMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.members[circleID], nil
}

func (r *fakeCircleRepo) FindMember(_ context.Context, circleID, userID int64) (*domain.CircleMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, member := range r.members[circleID] {
		if member.UserID == userID {
			return member, nil
		}
	}
	return nil, repository.ErrMemberNotFound
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[int64]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*domain.User)}
}

func (r *fakeUserRepo) add(user *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
}

func (r *fakeUserRepo) FindByID(_ context.Context, userID int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

type fakeNotificationRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   []*domain.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{}
}

func (r *fakeNotificationRepo) Create(_ context.Context, notification *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	notification.ID = r.nextID
	notification.CreatedAt = time.Now()
	copied := *notification
	r.rows = append(r.rows, &copied)
	return nil
}

func (r *fakeNotificationRepo) FindByID(_ context.Context, notificationID int64) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.rows {
		if row.ID == notificationID {
			copied := *row
			return &copied, nil
		}
	}
	return nil, repository.ErrNotificationNotFound
}

func (r *fakeNotificationRepo) ExistsForEvent(_ context.Context, eventID, userID int64, notificationType domain.NotificationType) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.rows {
		if row.EventID != nil && *row.EventID == eventID && row.UserID == userID && row.Type == notificationType {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeNotificationRepo) ListByUser(_ context.Context, userID int64) ([]*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var rows []*domain.Notification
	for _, row := range r.rows {
		if row.UserID == userID {
			copied := *row
			rows = append(rows, &copied)
		}
	}
	return rows, nil
}

func (r *fakeNotificationRepo) byType(userID int64, notificationType domain.NotificationType) []*domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	var rows []*domain.Notification
	for _, row := range r.rows {
		if row.UserID == userID && row.Type == notificationType {
			rows = append(rows, row)
		}
	}
	return rows
}

// fakeOutbox records saved events; the dispatcher side has its own
// tests, so the services only need to observe what was enqueued.
type fakeOutbox struct {
	mu     sync.Mutex
	nextID int64
	saved  []*outboxDomain.OutboxEvent
}

func newFakeOutbox() *fakeOutbox {
	return &fakeOutbox{}
}

func (r *fakeOutbox) Save(_ context.Context, event *outboxDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	event.Id = r.nextID
	event.Status = outboxDomain.StatusPending
	event.CreatedAt = time.Now()
	copied := *event
	r.saved = append(r.saved, &copied)
	return nil
}

func (r *fakeOutbox) FindPending(_ context.Context, batchSize int, now time.Time) ([]*outboxDomain.OutboxEvent, error) {
	return nil, nil
}

func (r *fakeOutbox) MarkProcessing(_ context.Context, eventID int64) error { return nil }
func (r *fakeOutbox) MarkCompleted(_ context.Context, eventID int64) error  { return nil }
func (r *fakeOutbox) MarkFailed(_ context.Context, eventID int64, errMsg string) error {
	return nil
}
func (r *fakeOutbox) IncrementRetry(_ context.Context, eventID int64, errMsg string) error {
	return nil
}

func (r *fakeOutbox) byType(eventType string) []*outboxDomain.OutboxEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	var events []*outboxDomain.OutboxEvent
	for _, event := range r.saved {
		if event.EventType == eventType {
			events = append(events, event)
		}
	}
	return events
}

// testEnv wires the services against the in-memory fakes.
type testEnv struct {
	eventRepo     *fakeEventRepo
	optionRepo    *fakeOptionRepo
	voteRepo      *fakeVoteRepo
	rsvpRepo      *fakeRsvpRepo
	personalRepo  *fakePersonalRepo
	circleRepo    *fakeCircleRepo
	userRepo      *fakeUserRepo
	notifications *fakeNotificationRepo
	outbox        *fakeOutbox

	voting    VotingService
	conflicts ConflictService
	events    *eventService
}

func newTestEnv() *testEnv {
	logger := zap.NewNop()

	rsvps := newFakeRsvpRepo()
	votes := newFakeVoteRepo()

	env := &testEnv{
		eventRepo:     newFakeEventRepo(rsvps),
		optionRepo:    newFakeOptionRepo(votes),
		voteRepo:      votes,
		rsvpRepo:      rsvps,
		personalRepo:  newFakePersonalRepo(),
		circleRepo:    newFakeCircleRepo(),
		userRepo:      newFakeUserRepo(),
		notifications: newFakeNotificationRepo(),
		outbox:        newFakeOutbox(),
	}

	env.voting = NewVotingService(logger, env.eventRepo, env.optionRepo, env.voteRepo)
	env.conflicts = NewConflictService(logger, env.eventRepo, env.circleRepo, env.rsvpRepo, env.personalRepo, env.notifications, env.outbox)
	env.events = NewEventService(
		logger,
		env.eventRepo,
		env.optionRepo,
		env.circleRepo,
		env.rsvpRepo,
		env.notifications,
		env.outbox,
		env.voting,
		env.conflicts,
	).(*eventService)

	return env
}
