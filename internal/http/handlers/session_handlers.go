package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/you/gymdesk/domain"
	"github.com/you/gymdesk/internal/pkg/response"
)

// SessionHandlers serve the training session registry.
type SessionHandlers struct {
	sessions domain.SessionService
}

func NewSessionHandlers(sessions domain.SessionService) *SessionHandlers {
	return &SessionHandlers{sessions: sessions}
}

// CreateSessionRequest schedules a session.
type CreateSessionRequest struct {
	PersonCount  int    `json:"personCount" binding:"required"`
	StartingTime string `json:"startingTime" binding:"required"`
	EndTime      string `json:"endTime"`
	Date         string `json:"date" binding:"required"`
	Users        []uint `json:"users"`
	TrainerID    *uint  `json:"trainerId"`
	Notes        string `json:"notes"`
}

// UpdateSessionRequest is a partial update; absent fields are unchanged.
type UpdateSessionRequest struct {
	PersonCount  *int    `json:"personCount"`
	StartingTime *string `json:"startingTime"`
	EndTime      *string `json:"endTime"`
	Date         *string `json:"date"`
	Users        *[]uint `json:"users"`
	TrainerID    *uint   `json:"trainerId"`
	Notes        *string `json:"notes"`
}

type participantRequest struct {
	UserID uint `json:"userId" binding:"required"`
}

type sessionStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *SessionHandlers) Create(c *gin.Context) {
	var req CreateSessionRequest
	if !bindJSON(c, &req, "Person count, starting time, and date are required") {
		return
	}
	session, err := h.sessions.Create(c.Request.Context(), domain.NewSession{
		PersonCount:  req.PersonCount,
		StartingTime: req.StartingTime,
		EndTime:      req.EndTime,
		Date:         req.Date,
		Users:        req.Users,
		TrainerID:    req.TrainerID,
		Notes:        req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Session created successfully", session)
}

// List supports the date, status, trainerId and upcoming=true filters.
func (h *SessionHandlers) List(c *gin.Context) {
	filter := domain.SessionFilter{
		Date:     c.Query("date"),
		Upcoming: c.Query("upcoming") == "true",
	}
	if s := c.Query("status"); s != "" {
		filter.Statuses = []domain.SessionStatus{domain.SessionStatus(s)}
	}
	trainerID, ok := uintQuery(c, "trainerId")
	if !ok {
		return
	}
	filter.TrainerID = trainerID
	h.list(c, filter)
}

func (h *SessionHandlers) list(c *gin.Context, filter domain.SessionFilter) {
	sessions, err := h.sessions.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", sessions)
}

func (h *SessionHandlers) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	session, err := h.sessions.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", session)
}

func (h *SessionHandlers) GetBySessionID(c *gin.Context) {
	session, err := h.sessions.GetBySessionID(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", session)
}

func (h *SessionHandlers) ByDate(c *gin.Context) {
	h.list(c, domain.SessionFilter{Date: c.Param("date")})
}

func (h *SessionHandlers) ByDateRange(c *gin.Context) {
	start, end := c.Query("startDate"), c.Query("endDate")
	if start == "" || end == "" {
		response.Error(c, domain.NewValidationError(
			domain.FieldError{Field: "startDate", Message: "startDate is required"},
			domain.FieldError{Field: "endDate", Message: "endDate is required"},
		).WithMessagef("Start date and end date are required"))
		return
	}
	h.list(c, domain.SessionFilter{FromDate: start, ToDate: end})
}

func (h *SessionHandlers) ByUser(c *gin.Context) {
	id, ok := idParam(c, "userId")
	if !ok {
		return
	}
	h.list(c, domain.SessionFilter{UserID: &id})
}

// Upcoming is public; limit defaults to 10.
func (h *SessionHandlers) Upcoming(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	sessions, err := h.sessions.ListUpcoming(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", sessions)
}

func (h *SessionHandlers) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req UpdateSessionRequest
	if !bindJSON(c, &req, "") {
		return
	}
	patch := domain.SessionPatch{
		PersonCount:  req.PersonCount,
		StartingTime: req.StartingTime,
		EndTime:      req.EndTime,
		Date:         req.Date,
		TrainerID:    req.TrainerID,
		Notes:        req.Notes,
	}
	if req.Users != nil {
		patch.Users = *req.Users
		patch.SetUsers = true
	}
	session, err := h.sessions.Update(c.Request.Context(), id, patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Session updated successfully", session)
}

func (h *SessionHandlers) AddUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req participantRequest
	if !bindJSON(c, &req, "User ID is required") {
		return
	}
	session, err := h.sessions.AddParticipant(c.Request.Context(), id, req.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "User added to session successfully", session)
}

func (h *SessionHandlers) RemoveUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req participantRequest
	if !bindJSON(c, &req, "User ID is required") {
		return
	}
	session, err := h.sessions.RemoveParticipant(c.Request.Context(), id, req.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "User removed from session successfully", session)
}

func (h *SessionHandlers) SetStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req sessionStatusRequest
	if !bindJSON(c, &req, "Status is required") {
		return
	}
	session, err := h.sessions.SetStatus(c.Request.Context(), id, domain.SessionStatus(req.Status))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Session status updated successfully", session)
}

func (h *SessionHandlers) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.sessions.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Session deleted successfully", nil)
}
