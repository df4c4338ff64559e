package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinisched/clinisched/services/scheduling-service/internal/availability"
	"github.com/clinisched/clinisched/services/scheduling-service/internal/model"
	"github.com/clinisched/clinisched/services/scheduling-service/internal/storage"
)

// PhysicianHandler is the admin surface for the physician directory and its
// availability configuration.
type PhysicianHandler struct {
	repo   *storage.PhysicianRepository
	logger *slog.Logger
}

func NewPhysicianHandler(repo *storage.PhysicianRepository, logger *slog.Logger) *PhysicianHandler {
	return &PhysicianHandler{repo: repo, logger: logger}
}

type physicianItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty,omitempty"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

type clockRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type createPhysicianRequest struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

type setStatusRequest struct {
	PhysicianID string `json:"physician_id"`
	Status      string `json:"status"`
}

type replaceWeekdayRequest struct {
	PhysicianID string       `json:"physician_id"`
	Weekday     int          `json:"weekday"`
	Ranges      []clockRange `json:"ranges"`
}

type overrideRequest struct {
	PhysicianID string       `json:"physician_id"`
	Date        string       `json:"date"`
	Ranges      []clockRange `json:"ranges"`
}

func (h *PhysicianHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createPhysicianRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}

	p, err := h.repo.Create(r.Context(), req.Name, strings.TrimSpace(req.Specialty))
	if err != nil {
		h.logger.Error("physician create failed", "err", err)
		http.Error(w, "failed to create physician", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, toPhysicianItem(p))
}

func (h *PhysicianHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	physicians, err := h.repo.List(r.Context())
	if err != nil {
		http.Error(w, "failed to list physicians", http.StatusInternalServerError)
		return
	}
	items := make([]physicianItem, 0, len(physicians))
	for _, p := range physicians {
		items = append(items, toPhysicianItem(p))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *PhysicianHandler) Get(w http.ResponseWriter, r *http.Request) {
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
		http.Error(w, "physician not found", http.StatusNotFound)
		return
	}

	p, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "physician not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load physician", http.StatusInternalServerError)
		return
	}

	hours, err := h.repo.ListWeeklyHours(r.Context(), id)
	if err != nil {
		http.Error(w, "failed to load weekly hours", http.StatusInternalServerError)
		return
	}
	overrides, err := h.repo.ListOverrides(r.Context(), id)
	if err != nil {
		http.Error(w, "failed to load overrides", http.StatusInternalServerError)
		return
	}

	weekly := make(map[string][]clockRange, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		weekly[strings.ToLower(d.String())] = []clockRange{}
	}
	for _, hr := range hours {
		day := strings.ToLower(time.Weekday(hr.Weekday).String())
		weekly[day] = append(weekly[day], clockRange{Start: hr.StartClock, End: hr.EndClock})
	}

	overrideItems := make(map[string][]clockRange, len(overrides))
	for _, o := range overrides {
		ranges := make([]clockRange, 0, len(o.Ranges))
		for _, rng := range o.Ranges {
			ranges = append(ranges, clockRange{Start: rng.StartClock, End: rng.EndClock})
		}
		overrideItems[o.Date] = ranges
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"physician":           toPhysicianItem(p),
		"weekly_availability": weekly,
		"date_overrides":      overrideItems,
	})
}

func (h *PhysicianHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.PhysicianID = strings.TrimSpace(req.PhysicianID)
	req.Status = strings.TrimSpace(req.Status)
	if req.PhysicianID == "" || !isUUID(req.PhysicianID) {
		http.Error(w, "valid physician_id required", http.StatusBadRequest)
		return
	}
	if req.Status != model.PhysicianActive && req.Status != model.PhysicianInactive {
		http.Error(w, "status must be active or inactive", http.StatusBadRequest)
		return
	}

	if err := h.repo.SetStatus(r.Context(), req.PhysicianID, req.Status); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "physician not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to update status", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"physician_id": req.PhysicianID, "status": req.Status})
}

func (h *PhysicianHandler) ReplaceWeekday(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req replaceWeekdayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.PhysicianID = strings.TrimSpace(req.PhysicianID)
	if req.PhysicianID == "" || !isUUID(req.PhysicianID) {
		http.Error(w, "valid physician_id required", http.StatusBadRequest)
		return
	}
	if req.Weekday < 0 || req.Weekday > 6 {
		http.Error(w, "weekday must be 0 (sunday) through 6 (saturday)", http.StatusBadRequest)
		return
	}

	hours, ok := canonicalRanges(req.Ranges, req.Weekday)
	if !ok {
		http.Error(w, "ranges must be valid HH:MM pairs with start before end", http.StatusBadRequest)
		return
	}

	if err := h.repo.ReplaceWeekday(r.Context(), req.PhysicianID, req.Weekday, hours); err != nil {
		http.Error(w, "failed to update weekly hours", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"physician_id": req.PhysicianID, "weekday": req.Weekday, "ranges": len(hours)})
}

func (h *PhysicianHandler) UpsertOverride(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.PhysicianID = strings.TrimSpace(req.PhysicianID)
	req.Date = strings.TrimSpace(req.Date)
	if req.PhysicianID == "" || !isUUID(req.PhysicianID) || req.Date == "" {
		http.Error(w, "valid physician_id and date required", http.StatusBadRequest)
		return
	}
	if _, err := time.ParseInLocation(availability.DateLayout, req.Date, time.UTC); err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	// An empty ranges list is a deliberate closure for that date.
	ranges := make([]model.OverrideRange, 0, len(req.Ranges))
	for _, rng := range req.Ranges {
		start, end, ok := canonicalRange(rng)
		if !ok {
			http.Error(w, "ranges must be valid HH:MM pairs with start before end", http.StatusBadRequest)
			return
		}
		ranges = append(ranges, model.OverrideRange{StartClock: start, EndClock: end})
	}

	if err := h.repo.UpsertOverride(r.Context(), req.PhysicianID, req.Date, ranges); err != nil {
		http.Error(w, "failed to save override", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"physician_id": req.PhysicianID, "date": req.Date, "ranges": len(ranges)})
}

func (h *PhysicianHandler) DeleteOverride(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.PhysicianID = strings.TrimSpace(req.PhysicianID)
	req.Date = strings.TrimSpace(req.Date)
	if req.PhysicianID == "" || req.Date == "" {
		http.Error(w, "physician_id and date required", http.StatusBadRequest)
		return
	}

	if err := h.repo.DeleteOverride(r.Context(), req.PhysicianID, req.Date); err != nil {
		http.Error(w, "failed to delete override", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"physician_id": req.PhysicianID, "date": req.Date})
}

func canonicalRanges(in []clockRange, weekday int) ([]model.WeeklyHour, bool) {
	hours := make([]model.WeeklyHour, 0, len(in))
	for i, rng := range in {
		start, end, ok := canonicalRange(rng)
		if !ok {
			return nil, false
		}
		hours = append(hours, model.WeeklyHour{
			Weekday:    weekday,
			Position:   i,
			StartClock: start,
			EndClock:   end,
		})
	}
	return hours, true
}

func canonicalRange(rng clockRange) (string, string, bool) {
	start, err := availability.ParseClock(rng.Start)
	if err != nil {
		return "", "", false
	}
	end, err := availability.ParseClock(rng.End)
	if err != nil {
		return "", "", false
	}
	if start >= end {
		return "", "", false
	}
	return availability.FormatClock(start), availability.FormatClock(end), true
}

func toPhysicianItem(p model.Physician) physicianItem {
	return physicianItem{
		ID:        p.ID,
		Name:      p.Name,
		Specialty: p.Specialty,
		Status:    p.Status,
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// isUUID rejects malformed ids at the edge so storage never sees values that
// would fail the uuid cast.
func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
