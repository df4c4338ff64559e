package model

import "time"

const (
	AppointmentPending   = "pending"
	AppointmentScheduled = "scheduled"
	AppointmentCancelled = "cancelled"
)

type Appointment struct {
	ID                 string
	PatientID          string
	PatientName        string
	PatientEmail       string
	PatientPhone       string
	PhysicianID        string
	PhysicianName      string
	Reason             string
	VisitDate          string
	StartTime          time.Time
	EndTime            time.Time
	Status             string
	IsVirtual          bool
	MeetingLink        string
	CancellationReason string
	CancelledAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
