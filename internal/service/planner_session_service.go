package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusplan/timetable-api/internal/dto"
	"github.com/campusplan/timetable-api/internal/models"
	appErrors "github.com/campusplan/timetable-api/pkg/errors"
)

type plannerTermReader interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

type plannerDepartmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
}

type plannerHallSource interface {
	ListSchedulable(ctx context.Context, departmentID string) ([]models.Hall, error)
}

type plannerSlotSource interface {
	ListAll(ctx context.Context) ([]models.TimeSlot, error)
}

type plannerOfferingSource interface {
	ListUnplaced(ctx context.Context, termID, departmentID string) ([]models.CourseOffering, error)
}

type plannerEntrySource interface {
	ListDetailsForPlanner(ctx context.Context, termID string) ([]models.ScheduleEntryDetail, error)
}

type plannerUnavailabilitySource interface {
	ListUnavailabilityByTerm(ctx context.Context, termID string) ([]models.InstructorUnavailability, error)
}

// occupant records one booking of a hall-slot cell inside a snapshot.
type occupant struct {
	EntryID     string
	OfferingID  string
	CourseCode  string
	WeekPattern models.WeekPattern
}

// plannerSnapshot is the in-memory working state of one planning session.
// All reads and writes go through the owning session's lock.
type plannerSnapshot struct {
	termID       string
	departmentID string

	slots       []models.TimeSlot
	slotsByID   map[string]models.TimeSlot
	halls       []models.Hall
	hallsByID   map[string]models.Hall
	unplaced    []models.CourseOffering
	entries     []models.ScheduleEntryDetail
	occupancy   map[string][]occupant
	instructors map[string][]occupant
	unavailable map[string]map[string]bool
	records     []models.InstructorUnavailability
}

func occupancyKey(hallID, slotID string) string {
	return hallID + "|" + slotID
}

func instructorKey(instructorID, slotID string) string {
	return instructorID + "|" + slotID
}

func buildSnapshot(
	termID, departmentID string,
	slots []models.TimeSlot,
	halls []models.Hall,
	unplaced []models.CourseOffering,
	entries []models.ScheduleEntryDetail,
	unavailability []models.InstructorUnavailability,
) *plannerSnapshot {
	snap := &plannerSnapshot{
		termID:       termID,
		departmentID: departmentID,
		slots:        slots,
		slotsByID:    make(map[string]models.TimeSlot, len(slots)),
		halls:        append([]models.Hall(nil), halls...),
		hallsByID:    make(map[string]models.Hall, len(halls)),
		unplaced:     append([]models.CourseOffering(nil), unplaced...),
		entries:      append([]models.ScheduleEntryDetail(nil), entries...),
		occupancy:    make(map[string][]occupant),
		instructors:  make(map[string][]occupant),
		unavailable:  make(map[string]map[string]bool),
		records:      unavailability,
	}
	// Tightest fit first regardless of how the source orders halls.
	sort.SliceStable(snap.halls, func(i, j int) bool {
		return snap.halls[i].Capacity < snap.halls[j].Capacity
	})
	for _, slot := range slots {
		snap.slotsByID[slot.ID] = slot
	}
	for _, hall := range snap.halls {
		snap.hallsByID[hall.ID] = hall
	}
	for _, entry := range entries {
		booking := occupant{
			EntryID:     entry.ID,
			OfferingID:  entry.OfferingID,
			CourseCode:  entry.CourseCode,
			WeekPattern: entry.WeekPattern,
		}
		key := occupancyKey(entry.HallID, entry.TimeSlotID)
		snap.occupancy[key] = append(snap.occupancy[key], booking)
		if entry.InstructorID != "" {
			ikey := instructorKey(entry.InstructorID, entry.TimeSlotID)
			snap.instructors[ikey] = append(snap.instructors[ikey], booking)
		}
	}
	for _, record := range unavailability {
		if snap.unavailable[record.InstructorID] == nil {
			snap.unavailable[record.InstructorID] = make(map[string]bool)
		}
		snap.unavailable[record.InstructorID][record.TimeSlotID] = true
	}
	return snap
}

// resolveSlot maps a (day, "HH:MM") pair to the matching time slot. Stored
// start times carry seconds, so the match is a prefix test. Slots are ordered
// by day then start time, which makes resolution deterministic.
func (s *plannerSnapshot) resolveSlot(dayOfWeek int, startTime string) (*models.TimeSlot, bool) {
	for i := range s.slots {
		if s.slots[i].DayOfWeek != dayOfWeek {
			continue
		}
		if strings.HasPrefix(s.slots[i].StartTime, startTime) {
			return &s.slots[i], true
		}
	}
	return nil, false
}

// occupants returns the bookings colliding with (hall, slot, pattern).
func (s *plannerSnapshot) occupants(hallID, slotID string, pattern models.WeekPattern) []occupant {
	var colliding []occupant
	for _, occ := range s.occupancy[occupancyKey(hallID, slotID)] {
		if occ.WeekPattern.Overlaps(pattern) {
			colliding = append(colliding, occ)
		}
	}
	return colliding
}

// instructorUnavailable reports whether the instructor blocked this slot.
func (s *plannerSnapshot) instructorUnavailable(instructorID, slotID string) bool {
	blocked := s.unavailable[instructorID]
	return blocked != nil && blocked[slotID]
}

// instructorBookings returns entries the instructor already teaches at this
// slot, in any hall, for overlapping week patterns.
func (s *plannerSnapshot) instructorBookings(instructorID, slotID string, pattern models.WeekPattern) []occupant {
	if instructorID == "" {
		return nil
	}
	var colliding []occupant
	for _, occ := range s.instructors[instructorKey(instructorID, slotID)] {
		if occ.WeekPattern.Overlaps(pattern) {
			colliding = append(colliding, occ)
		}
	}
	return colliding
}

// markPlaced records a committed entry and drops the offering from the
// unplaced list.
func (s *plannerSnapshot) markPlaced(entry models.ScheduleEntry, offering models.CourseOffering) {
	booking := occupant{
		EntryID:     entry.ID,
		OfferingID:  entry.OfferingID,
		CourseCode:  offering.CourseCode,
		WeekPattern: entry.WeekPattern,
	}
	key := occupancyKey(entry.HallID, entry.TimeSlotID)
	s.occupancy[key] = append(s.occupancy[key], booking)
	if offering.InstructorID != "" {
		ikey := instructorKey(offering.InstructorID, entry.TimeSlotID)
		s.instructors[ikey] = append(s.instructors[ikey], booking)
	}
	for i := range s.unplaced {
		if s.unplaced[i].ID == offering.ID {
			s.unplaced = append(s.unplaced[:i], s.unplaced[i+1:]...)
			break
		}
	}
}

// findUnplaced locates an offering still awaiting placement.
func (s *plannerSnapshot) findUnplaced(offeringID string) (models.CourseOffering, bool) {
	for _, offering := range s.unplaced {
		if offering.ID == offeringID {
			return offering, true
		}
	}
	return models.CourseOffering{}, false
}

// plannerSession pairs session metadata with its working snapshot. The
// mutex serialises placement operations within one session.
type plannerSession struct {
	mu sync.Mutex

	id           string
	termID       string
	departmentID string
	createdAt    time.Time
	expiresAt    time.Time
	snapshot     *plannerSnapshot
}

func (p *plannerSession) describe() dto.PlannerSession {
	return dto.PlannerSession{
		SessionID:    p.id,
		TermID:       p.termID,
		DepartmentID: p.departmentID,
		CreatedAt:    p.createdAt,
		ExpiresAt:    p.expiresAt,
	}
}

type sessionStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]*plannerSession
}

func newSessionStore(ttl time.Duration) *sessionStore {
	return &sessionStore{
		ttl:   ttl,
		items: make(map[string]*plannerSession),
	}
}

func (s *sessionStore) Save(session *plannerSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[session.id] = session
}

func (s *sessionStore) Get(id string) (*plannerSession, bool) {
	s.mu.RLock()
	session, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(session.expiresAt) {
		s.Delete(id)
		return nil, false
	}
	return session, true
}

func (s *sessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

// PlannerSessionService owns planner session lifecycle and snapshot loading.
type PlannerSessionService struct {
	terms          plannerTermReader
	departments    plannerDepartmentReader
	halls          plannerHallSource
	slots          plannerSlotSource
	offerings      plannerOfferingSource
	entries        plannerEntrySource
	unavailability plannerUnavailabilitySource
	validator      *validator.Validate
	logger         *zap.Logger
	store          *sessionStore
}

// PlannerSessionConfig governs session behaviour.
type PlannerSessionConfig struct {
	SessionTTL time.Duration
}

// NewPlannerSessionService wires planner session dependencies.
func NewPlannerSessionService(
	terms plannerTermReader,
	departments plannerDepartmentReader,
	halls plannerHallSource,
	slots plannerSlotSource,
	offerings plannerOfferingSource,
	entries plannerEntrySource,
	unavailability plannerUnavailabilitySource,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg PlannerSessionConfig,
) *PlannerSessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 2 * time.Hour
	}
	return &PlannerSessionService{
		terms:          terms,
		departments:    departments,
		halls:          halls,
		slots:          slots,
		offerings:      offerings,
		entries:        entries,
		unavailability: unavailability,
		validator:      validate,
		logger:         logger,
		store:          newSessionStore(cfg.SessionTTL),
	}
}

// Open starts a new planning session and loads its snapshot.
func (s *PlannerSessionService) Open(ctx context.Context, req dto.OpenSessionRequest) (*dto.PlannerSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid open session payload")
	}
	if err := s.ensureTermAndDepartment(ctx, req.TermID, req.DepartmentID); err != nil {
		return nil, err
	}

	snapshot, err := s.loadSnapshot(ctx, req.TermID, req.DepartmentID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &plannerSession{
		id:           uuid.NewString(),
		termID:       req.TermID,
		departmentID: req.DepartmentID,
		createdAt:    now,
		expiresAt:    now.Add(s.store.ttl),
		snapshot:     snapshot,
	}
	s.store.Save(session)

	s.logger.Info("planner_session_opened",
		zap.String("session_id", session.id),
		zap.String("term_id", req.TermID),
		zap.String("department_id", req.DepartmentID),
		zap.Int("unplaced", len(snapshot.unplaced)),
	)

	described := session.describe()
	return &described, nil
}

// Options returns the full grid payload for a session.
func (s *PlannerSessionService) Options(ctx context.Context, sessionID string) (*dto.PlannerOptions, error) {
	session, err := s.resolve(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	snap := session.snapshot
	opts := &dto.PlannerOptions{
		Session:        session.describe(),
		Days:           models.TeachingDays,
		StartTimes:     models.CanonicalStartTimes,
		TimeSlots:      snap.slots,
		Halls:          snap.halls,
		Unplaced:       append([]models.CourseOffering(nil), snap.unplaced...),
		Entries:        append([]models.ScheduleEntryDetail(nil), snap.entries...),
		Unavailability: snap.records,
	}
	return opts, nil
}

// RoomOptions classifies every schedulable hall for one candidate grid cell.
// The slot is resolved once; an unresolvable (day, time) fails the whole call
// rather than yielding an empty list.
func (s *PlannerSessionService) RoomOptions(ctx context.Context, sessionID, offeringID string, dayOfWeek int, startTime string) ([]dto.RoomOption, error) {
	if offeringID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "offering id is required")
	}

	session, err := s.resolve(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	snap := session.snapshot

	offering, ok := snap.findUnplaced(offeringID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "offering not found or already placed")
	}
	slot, ok := snap.resolveSlot(dayOfWeek, startTime)
	if !ok {
		return nil, appErrors.ErrSlotNotFound
	}

	options := make([]dto.RoomOption, 0, len(snap.halls))
	for _, hall := range snap.halls {
		options = append(options, dto.RoomOption{
			Hall:   hall,
			Report: evaluateConflicts(snap, offering, hall, *slot, models.WeekPatternEvery),
		})
	}
	return options, nil
}

// Describe returns session metadata without hitting the snapshot sources.
func (s *PlannerSessionService) Describe(ctx context.Context, sessionID string) (*dto.PlannerSession, error) {
	session, err := s.resolve(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	described := session.describe()
	session.mu.Unlock()

	return &described, nil
}

// Refresh reloads the session snapshot from storage, discarding local state.
func (s *PlannerSessionService) Refresh(ctx context.Context, sessionID string) (*dto.PlannerSession, error) {
	session, err := s.resolve(sessionID)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.loadSnapshot(ctx, session.termID, session.departmentID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	session.snapshot = snapshot
	described := session.describe()
	session.mu.Unlock()

	return &described, nil
}

// Close discards a session.
func (s *PlannerSessionService) Close(ctx context.Context, sessionID string) error {
	if _, err := s.resolve(sessionID); err != nil {
		return err
	}
	s.store.Delete(sessionID)
	return nil
}

// resolve fetches a live session or fails with SessionClosed.
func (s *PlannerSessionService) resolve(sessionID string) (*plannerSession, error) {
	if sessionID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "session id is required")
	}
	session, ok := s.store.Get(sessionID)
	if !ok {
		return nil, appErrors.ErrSessionClosed
	}
	return session, nil
}

func (s *PlannerSessionService) loadSnapshot(ctx context.Context, termID, departmentID string) (*plannerSnapshot, error) {
	slots, err := s.slots.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slots")
	}
	halls, err := s.halls.ListSchedulable(ctx, departmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load halls")
	}
	unplaced, err := s.offerings.ListUnplaced(ctx, termID, departmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load unplaced offerings")
	}
	entries, err := s.entries.ListDetailsForPlanner(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule entries")
	}
	unavailability, err := s.unavailability.ListUnavailabilityByTerm(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor unavailability")
	}

	return buildSnapshot(termID, departmentID, slots, halls, unplaced, entries, unavailability), nil
}

func (s *PlannerSessionService) ensureTermAndDepartment(ctx context.Context, termID, departmentID string) error {
	if s.terms != nil {
		if _, err := s.terms.FindByID(ctx, termID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "term not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
		}
	}
	if s.departments != nil {
		if _, err := s.departments.FindByID(ctx, departmentID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "department not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
		}
	}
	return nil
}
