package service

import (
	"fmt"

	"github.com/campusplan/timetable-api/internal/dto"
	"github.com/campusplan/timetable-api/internal/models"
)

// evaluateConflicts classifies a candidate placement against the snapshot.
// Rules run independently and all applicable reasons are collected, with one
// exception: a hall double-booking is never overridable and suppresses every
// other reason, since the cell cannot be used at all.
func evaluateConflicts(
	snap *plannerSnapshot,
	offering models.CourseOffering,
	hall models.Hall,
	slot models.TimeSlot,
	pattern models.WeekPattern,
) dto.ConflictReport {
	if colliding := snap.occupants(hall.ID, slot.ID, pattern); len(colliding) > 0 {
		reason := dto.ConflictReason{
			Code:        dto.ReasonRoomOccupied,
			Severity:    dto.SeverityBlocking,
			Overridable: false,
			Message:     fmt.Sprintf("%s is already booked at %s %s by %s", hall.Name, slot.DayName(), slot.StartTime, colliding[0].CourseCode),
			Meta: map[string]any{
				"hallId":       hall.ID,
				"timeSlotId":   slot.ID,
				"occupiedBy":   colliding[0].CourseCode,
				"occupantSize": len(colliding),
			},
		}
		return dto.ConflictReport{Severity: dto.SeverityBlocking, Reasons: []dto.ConflictReason{reason}}
	}

	var reasons []dto.ConflictReason

	if offering.StudentCount > hall.Capacity {
		reasons = append(reasons, dto.ConflictReason{
			Code:        dto.ReasonCapacityExceeded,
			Severity:    dto.SeverityBlocking,
			Overridable: true,
			Message:     fmt.Sprintf("%s seats %d but %s has %d students", hall.Name, hall.Capacity, offering.CourseCode, offering.StudentCount),
			Meta: map[string]any{
				"hallCapacity": hall.Capacity,
				"studentCount": offering.StudentCount,
			},
		})
	}

	if snap.instructorUnavailable(offering.InstructorID, slot.ID) {
		reasons = append(reasons, dto.ConflictReason{
			Code:        dto.ReasonInstructorUnavailable,
			Severity:    dto.SeverityWarning,
			Overridable: true,
			Message:     fmt.Sprintf("instructor is marked unavailable at %s %s", slot.DayName(), slot.StartTime),
			Meta: map[string]any{
				"instructorId": offering.InstructorID,
				"timeSlotId":   slot.ID,
			},
		})
	}

	if teaching := snap.instructorBookings(offering.InstructorID, slot.ID, pattern); len(teaching) > 0 {
		reasons = append(reasons, dto.ConflictReason{
			Code:        dto.ReasonInstructorConflict,
			Severity:    dto.SeverityWarning,
			Overridable: true,
			Message:     fmt.Sprintf("instructor already teaches %s at %s %s", teaching[0].CourseCode, slot.DayName(), slot.StartTime),
			Meta: map[string]any{
				"instructorId": offering.InstructorID,
				"timeSlotId":   slot.ID,
				"teaching":     teaching[0].CourseCode,
			},
		})
	}

	severity := dto.SeverityOK
	for _, reason := range reasons {
		if reason.Severity == dto.SeverityBlocking {
			severity = dto.SeverityBlocking
			break
		}
		severity = dto.SeverityWarning
	}

	return dto.ConflictReport{Severity: severity, Reasons: reasons}
}
