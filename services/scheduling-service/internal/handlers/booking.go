package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/clinisched/clinisched/services/scheduling-service/internal/booking"
	"github.com/clinisched/clinisched/services/scheduling-service/internal/model"
	"github.com/clinisched/clinisched/services/scheduling-service/internal/storage"
)

type BookingHandler struct {
	svc    *booking.Service
	repo   *storage.AppointmentRepository
	logger *slog.Logger
}

func NewBookingHandler(svc *booking.Service, repo *storage.AppointmentRepository, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{svc: svc, repo: repo, logger: logger}
}

type createAppointmentRequest struct {
	PatientID    string `json:"patient_id"`
	PatientName  string `json:"patient_name"`
	PatientEmail string `json:"patient_email"`
	PatientPhone string `json:"patient_phone"`
	PhysicianID  string `json:"physician_id"`
	Reason       string `json:"reason"`
	VisitDate    string `json:"visit_date"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	IsVirtual    bool   `json:"is_virtual"`
	MeetingLink  string `json:"meeting_link"`
	Confirm      bool   `json:"confirm"`
}

type rescheduleRequest struct {
	AppointmentID string  `json:"appointment_id"`
	PhysicianID   *string `json:"physician_id"`
	VisitDate     *string `json:"visit_date"`
	StartTime     *string `json:"start_time"`
	EndTime       *string `json:"end_time"`
	IsVirtual     *bool   `json:"is_virtual"`
	MeetingLink   *string `json:"meeting_link"`
}

type cancelRequest struct {
	AppointmentID string `json:"appointment_id"`
	Reason        string `json:"reason"`
}

type appointmentItem struct {
	AppointmentID      string `json:"appointment_id"`
	PatientID          string `json:"patient_id"`
	PatientName        string `json:"patient_name"`
	PhysicianID        string `json:"physician_id"`
	PhysicianName      string `json:"physician_name"`
	Reason             string `json:"reason,omitempty"`
	VisitDate          string `json:"visit_date"`
	StartTime          string `json:"start_time"`
	EndTime            string `json:"end_time"`
	Status             string `json:"status"`
	IsVirtual          bool   `json:"is_virtual"`
	MeetingLink        string `json:"meeting_link,omitempty"`
	CancellationReason string `json:"cancellation_reason,omitempty"`
	CancelledAt        string `json:"cancelled_at,omitempty"`
	CreatedAt          string `json:"created_at"`
}

type slotItem struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	physicianID := strings.TrimSpace(r.URL.Query().Get("physician_id"))
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if physicianID == "" || date == "" {
		http.Error(w, "physician_id and date are required", http.StatusBadRequest)
		return
	}
	if !isUUID(physicianID) {
		h.writeBookingError(w, booking.ErrPhysicianNotFound)
		return
	}
	interval := 30
	if raw := strings.TrimSpace(r.URL.Query().Get("interval_minutes")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 8*60 {
			http.Error(w, "invalid interval_minutes", http.StatusBadRequest)
			return
		}
		interval = n
	}

	slots, err := h.svc.AvailableSlots(r.Context(), physicianID, date, interval)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}

	items := make([]slotItem, 0, len(slots))
	for _, s := range slots {
		items = append(items, slotItem{
			StartTime: s.Start.UTC().Format(time.RFC3339),
			EndTime:   s.End.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.PatientID = strings.TrimSpace(req.PatientID)
	req.PatientName = strings.TrimSpace(req.PatientName)
	req.PhysicianID = strings.TrimSpace(req.PhysicianID)
	req.VisitDate = strings.TrimSpace(req.VisitDate)
	if req.PatientID == "" || req.PatientName == "" || req.PhysicianID == "" || req.VisitDate == "" {
		http.Error(w, "patient_id, patient_name, physician_id, and visit_date are required", http.StatusBadRequest)
		return
	}
	if !isUUID(req.PhysicianID) {
		h.writeBookingError(w, booking.ErrPhysicianNotFound)
		return
	}

	appt, err := h.svc.Create(r.Context(), booking.CreateInput{
		PatientID:    req.PatientID,
		PatientName:  req.PatientName,
		PatientEmail: strings.TrimSpace(req.PatientEmail),
		PatientPhone: strings.TrimSpace(req.PatientPhone),
		PhysicianID:  req.PhysicianID,
		Reason:       strings.TrimSpace(req.Reason),
		VisitDate:    req.VisitDate,
		StartClock:   strings.TrimSpace(req.StartTime),
		EndClock:     strings.TrimSpace(req.EndTime),
		IsVirtual:    req.IsVirtual,
		MeetingLink:  strings.TrimSpace(req.MeetingLink),
		Confirm:      req.Confirm,
	})
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAppointmentItem(appt))
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}
	if !isUUID(id) {
		http.Error(w, "appointment not found", http.StatusNotFound)
		return
	}

	appt, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentItem(appt))
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	patientID := strings.TrimSpace(r.URL.Query().Get("patient_id"))
	physicianID := strings.TrimSpace(r.URL.Query().Get("physician_id"))
	date := strings.TrimSpace(r.URL.Query().Get("date"))

	var appts []model.Appointment
	var err error
	switch {
	case patientID != "":
		limit := 50
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			if n, convErr := strconv.Atoi(raw); convErr == nil && n > 0 && n <= 200 {
				limit = n
			}
		}
		appts, err = h.repo.ListForPatient(r.Context(), patientID, limit)
	case physicianID != "" && date != "":
		appts, err = h.repo.ListForPhysicianDay(r.Context(), physicianID, date)
	default:
		http.Error(w, "patient_id, or physician_id with date, required", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}

	items := make([]appointmentItem, 0, len(appts))
	for _, a := range appts {
		items = append(items, toAppointmentItem(a))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *BookingHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}
	if !isUUID(req.AppointmentID) {
		h.writeBookingError(w, booking.ErrAppointmentNotFound)
		return
	}
	physicianID := trimPtrNonEmpty(req.PhysicianID)
	if physicianID != nil && !isUUID(*physicianID) {
		h.writeBookingError(w, booking.ErrPhysicianNotFound)
		return
	}

	appt, err := h.svc.Reschedule(r.Context(), booking.RescheduleInput{
		AppointmentID: req.AppointmentID,
		PhysicianID:   physicianID,
		VisitDate:     trimPtrNonEmpty(req.VisitDate),
		StartClock:    trimPtrNonEmpty(req.StartTime),
		EndClock:      trimPtrNonEmpty(req.EndTime),
		IsVirtual:     req.IsVirtual,
		MeetingLink:   trimPtr(req.MeetingLink),
	})
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentItem(appt))
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}
	if !isUUID(req.AppointmentID) {
		h.writeBookingError(w, booking.ErrAppointmentNotFound)
		return
	}

	appt, err := h.svc.Cancel(r.Context(), req.AppointmentID, strings.TrimSpace(req.Reason))
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentItem(appt))
}

func (h *BookingHandler) writeBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrInvalidTimeRange):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, booking.ErrSlotConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, booking.ErrAlreadyCancelled):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, booking.ErrPhysicianInactive):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, booking.ErrPhysicianNotFound), errors.Is(err, booking.ErrAppointmentNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		h.logger.Error("booking operation failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toAppointmentItem(a model.Appointment) appointmentItem {
	item := appointmentItem{
		AppointmentID:      a.ID,
		PatientID:          a.PatientID,
		PatientName:        a.PatientName,
		PhysicianID:        a.PhysicianID,
		PhysicianName:      a.PhysicianName,
		Reason:             a.Reason,
		VisitDate:          a.VisitDate,
		StartTime:          a.StartTime.UTC().Format(time.RFC3339),
		EndTime:            a.EndTime.UTC().Format(time.RFC3339),
		Status:             a.Status,
		IsVirtual:          a.IsVirtual,
		MeetingLink:        a.MeetingLink,
		CancellationReason: a.CancellationReason,
		CreatedAt:          a.CreatedAt.UTC().Format(time.RFC3339),
	}
	if a.CancelledAt != nil {
		item.CancelledAt = a.CancelledAt.UTC().Format(time.RFC3339)
	}
	return item
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	return &trimmed
}

// trimPtrNonEmpty folds a blank value into "field absent". Used for fields
// where an empty string cannot mean anything, unlike meeting_link where ""
// is an explicit clear.
func trimPtrNonEmpty(s *string) *string {
	p := trimPtr(s)
	if p == nil || *p == "" {
		return nil
	}
	return p
}
