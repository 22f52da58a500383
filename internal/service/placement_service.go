package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusplan/timetable-api/internal/dto"
	"github.com/campusplan/timetable-api/internal/models"
	"github.com/campusplan/timetable-api/internal/repository"
	appErrors "github.com/campusplan/timetable-api/pkg/errors"
)

type scheduleEntryWriter interface {
	Create(ctx context.Context, entry *models.ScheduleEntry) error
	FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error)
	Delete(ctx context.Context, id string) error
}

// PlacementService places single offerings into the timetable grid with
// conflict evaluation and explicit confirmation for overridable conflicts.
type PlacementService struct {
	sessions  *PlannerSessionService
	entries   scheduleEntryWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPlacementService wires placement dependencies.
func NewPlacementService(sessions *PlannerSessionService, entries scheduleEntryWriter, validate *validator.Validate, logger *zap.Logger) *PlacementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlacementService{
		sessions:  sessions,
		entries:   entries,
		validator: validate,
		logger:    logger,
	}
}

// Place attempts to put an offering into (hall, day, time). Overridable
// conflicts require req.Confirm; without it the call returns a
// confirmation_required result and performs no write.
func (s *PlacementService) Place(ctx context.Context, sessionID string, req dto.PlacementRequest) (*dto.PlacementResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid placement payload")
	}

	session, err := s.sessions.resolve(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	snap := session.snapshot

	offering, ok := snap.findUnplaced(req.OfferingID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "offering not found or already placed")
	}
	hall, ok := snap.hallsByID[req.HallID]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "hall not available in this session")
	}
	slot, ok := snap.resolveSlot(req.DayOfWeek, req.StartTime)
	if !ok {
		return nil, appErrors.ErrSlotNotFound
	}

	pattern := req.WeekPattern
	if pattern == "" {
		pattern = models.WeekPatternEvery
	}

	report := evaluateConflicts(snap, offering, hall, *slot, pattern)
	if !report.Overridable() {
		return nil, appErrors.Clone(appErrors.ErrRoomOccupied, report.Reasons[0].Message)
	}
	if len(report.Reasons) > 0 && !req.Confirm {
		return &dto.PlacementResult{
			Status:    dto.PlacementStatusConfirmationRequired,
			Conflicts: report.Reasons,
		}, nil
	}

	entry := &models.ScheduleEntry{
		TermID:      session.termID,
		OfferingID:  offering.ID,
		TimeSlotID:  slot.ID,
		HallID:      hall.ID,
		WeekPattern: pattern,
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrRoomOccupied, "hall was booked by another session for this slot")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist schedule entry")
	}

	snap.markPlaced(*entry, offering)
	snap.entries = append(snap.entries, entryDetail(*entry, offering, hall, *slot))

	s.logger.Info("offering_placed",
		zap.String("session_id", sessionID),
		zap.String("offering_id", offering.ID),
		zap.String("course_code", offering.CourseCode),
		zap.String("hall_id", hall.ID),
		zap.Int("day_of_week", slot.DayOfWeek),
		zap.String("start_time", slot.StartTime),
		zap.Int("overridden", len(report.Reasons)),
	)

	return &dto.PlacementResult{
		Status:    dto.PlacementStatusPlaced,
		Entry:     entry,
		Conflicts: report.Reasons,
	}, nil
}

// Evaluate runs conflict classification for a candidate cell without writing.
func (s *PlacementService) Evaluate(ctx context.Context, sessionID string, req dto.PlacementRequest) (*dto.ConflictReport, error) {
	session, err := s.sessions.resolve(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	snap := session.snapshot

	offering, ok := snap.findUnplaced(req.OfferingID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "offering not found or already placed")
	}
	hall, ok := snap.hallsByID[req.HallID]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "hall not available in this session")
	}
	slot, ok := snap.resolveSlot(req.DayOfWeek, req.StartTime)
	if !ok {
		return nil, appErrors.ErrSlotNotFound
	}

	pattern := req.WeekPattern
	if pattern == "" {
		pattern = models.WeekPatternEvery
	}

	report := evaluateConflicts(snap, offering, hall, *slot, pattern)
	return &report, nil
}

// Remove deletes an entry and returns its offering to the unplaced pool.
func (s *PlacementService) Remove(ctx context.Context, sessionID, entryID string) error {
	if entryID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "entry id is required")
	}

	session, err := s.sessions.resolve(sessionID)
	if err != nil {
		return err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	snap := session.snapshot

	entry, err := s.entries.FindByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule entry")
	}
	if entry.TermID != session.termID {
		return appErrors.Clone(appErrors.ErrForbidden, "entry does not belong to this session's term")
	}

	if err := s.entries.Delete(ctx, entryID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule entry")
	}

	snap.removeEntry(entryID)

	s.logger.Info("placement_removed",
		zap.String("session_id", sessionID),
		zap.String("entry_id", entryID),
		zap.String("offering_id", entry.OfferingID),
	)
	return nil
}

// removeEntry drops an entry from occupancy and detail lists, restoring its
// offering to the unplaced pool when it belongs to the session's department.
// Entries owned by other departments free the cell but stay out of the pool.
func (s *plannerSnapshot) removeEntry(entryID string) {
	var removed *models.ScheduleEntryDetail
	for i := range s.entries {
		if s.entries[i].ID == entryID {
			detail := s.entries[i]
			removed = &detail
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			break
		}
	}
	if removed == nil {
		return
	}

	key := occupancyKey(removed.HallID, removed.TimeSlotID)
	occupants := s.occupancy[key]
	for i := range occupants {
		if occupants[i].EntryID == entryID {
			s.occupancy[key] = append(occupants[:i], occupants[i+1:]...)
			break
		}
	}
	if removed.InstructorID != "" {
		ikey := instructorKey(removed.InstructorID, removed.TimeSlotID)
		teaching := s.instructors[ikey]
		for i := range teaching {
			if teaching[i].EntryID == entryID {
				s.instructors[ikey] = append(teaching[:i], teaching[i+1:]...)
				break
			}
		}
	}

	if removed.DepartmentID != s.departmentID {
		return
	}

	s.unplaced = append(s.unplaced, models.CourseOffering{
		ID:            removed.OfferingID,
		TermID:        removed.TermID,
		DepartmentID:  removed.DepartmentID,
		CourseCode:    removed.CourseCode,
		Title:         removed.CourseTitle,
		InstructorID:  removed.InstructorID,
		StudentCount:  removed.StudentCount,
		DurationSlots: 1,
	})
	sort.Slice(s.unplaced, func(i, j int) bool {
		return s.unplaced[i].CourseCode < s.unplaced[j].CourseCode
	})
}

func entryDetail(entry models.ScheduleEntry, offering models.CourseOffering, hall models.Hall, slot models.TimeSlot) models.ScheduleEntryDetail {
	return models.ScheduleEntryDetail{
		ScheduleEntry: entry,
		CourseCode:    offering.CourseCode,
		CourseTitle:   offering.Title,
		DepartmentID:  offering.DepartmentID,
		InstructorID:  offering.InstructorID,
		HallName:      hall.Name,
		DayOfWeek:     slot.DayOfWeek,
		StartTime:     slot.StartTime,
		EndTime:       slot.EndTime,
		StudentCount:  offering.StudentCount,
		HallCapacity:  hall.Capacity,
	}
}
