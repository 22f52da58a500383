package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/campusplan/timetable-api/internal/dto"
	"github.com/campusplan/timetable-api/internal/models"
	appErrors "github.com/campusplan/timetable-api/pkg/errors"
)

type autoScheduleEntryWriter interface {
	Create(ctx context.Context, entry *models.ScheduleEntry) error
}

// AutoScheduleService runs the greedy one-pass scheduler over a session's
// unplaced offerings. Search order is fixed: offerings in course code order,
// days Monday through Friday, canonical start times chronologically, halls
// capacity ascending. The first feasible combination wins; there is no
// backtracking.
type AutoScheduleService struct {
	sessions *PlannerSessionService
	entries  autoScheduleEntryWriter
	logger   *zap.Logger
}

// NewAutoScheduleService wires auto-scheduler dependencies.
func NewAutoScheduleService(sessions *PlannerSessionService, entries autoScheduleEntryWriter, logger *zap.Logger) *AutoScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AutoScheduleService{
		sessions: sessions,
		entries:  entries,
		logger:   logger,
	}
}

// Run executes the greedy pass. Each successful placement is persisted
// immediately before the next offering is attempted, so a mid-run failure
// leaves earlier placements committed. Cancellation is honoured between
// offerings; placements already made stay in place.
func (s *AutoScheduleService) Run(ctx context.Context, sessionID string) (*dto.AutoScheduleSummary, error) {
	session, err := s.sessions.resolve(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	snap := session.snapshot

	summary := &dto.AutoScheduleSummary{
		Failures: make([]dto.AutoScheduleFailure, 0),
		Entries:  make([]models.ScheduleEntry, 0),
	}

	pending := append([]models.CourseOffering(nil), snap.unplaced...)
	for _, offering := range pending {
		if ctx.Err() != nil {
			summary.Cancelled = true
			break
		}

		entry, placed := s.placeOne(ctx, session, snap, offering)
		if !placed {
			summary.Failures = append(summary.Failures, dto.AutoScheduleFailure{
				OfferingID: offering.ID,
				CourseCode: offering.CourseCode,
				Reason:     "no feasible day, time and hall combination",
			})
			continue
		}

		summary.Placed++
		summary.Entries = append(summary.Entries, *entry)
	}

	s.logger.Info("auto_schedule_completed",
		zap.String("session_id", sessionID),
		zap.Int("placed", summary.Placed),
		zap.Int("failed", len(summary.Failures)),
		zap.Bool("cancelled", summary.Cancelled),
	)
	return summary, nil
}

// placeOne scans the fixed candidate order for one offering. A rejected
// write is logged and treated as that candidate failing; the scan continues
// with the next combination.
func (s *AutoScheduleService) placeOne(ctx context.Context, session *plannerSession, snap *plannerSnapshot, offering models.CourseOffering) (*models.ScheduleEntry, bool) {
	for _, day := range models.TeachingDays {
		for _, start := range models.CanonicalStartTimes {
			slot, ok := snap.resolveSlot(day, start)
			if !ok {
				continue
			}
			// Instructor conflicts are a hard skip here; auto-placement
			// never overrides them. That covers both declared
			// unavailability and slots the instructor already teaches in.
			if snap.instructorUnavailable(offering.InstructorID, slot.ID) {
				continue
			}
			if len(snap.instructorBookings(offering.InstructorID, slot.ID, models.WeekPatternEvery)) > 0 {
				continue
			}
			for _, hall := range snap.halls {
				if hall.Capacity < offering.StudentCount {
					continue
				}
				if len(snap.occupants(hall.ID, slot.ID, models.WeekPatternEvery)) > 0 {
					continue
				}

				entry := &models.ScheduleEntry{
					TermID:      session.termID,
					OfferingID:  offering.ID,
					TimeSlotID:  slot.ID,
					HallID:      hall.ID,
					WeekPattern: models.WeekPatternEvery,
				}
				if err := s.entries.Create(ctx, entry); err != nil {
					s.logger.Warn("auto_schedule_write_rejected",
						zap.String("offering_id", offering.ID),
						zap.String("hall_id", hall.ID),
						zap.String("time_slot_id", slot.ID),
						zap.Error(appErrors.FromError(err)),
					)
					continue
				}

				snap.markPlaced(*entry, offering)
				snap.entries = append(snap.entries, entryDetail(*entry, offering, hall, *slot))
				return entry, true
			}
		}
	}
	return nil, false
}
