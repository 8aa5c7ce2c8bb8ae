package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/you/gymdesk/domain"
	"github.com/you/gymdesk/internal/pkg/response"
)

// ProfileHandlers serve a user's personal details and body data.
type ProfileHandlers struct {
	profiles domain.ProfileService
}

func NewProfileHandlers(profiles domain.ProfileService) *ProfileHandlers {
	return &ProfileHandlers{profiles: profiles}
}

func (h *ProfileHandlers) Get(c *gin.Context) {
	id, ok := idParam(c, "userId")
	if !ok {
		return
	}
	user, err := h.profiles.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", user)
}

func (h *ProfileHandlers) UpdatePersonal(c *gin.Context) {
	id, ok := idParam(c, "userId")
	if !ok {
		return
	}
	var req domain.PersonalDetails
	if !bindJSON(c, &req, "") {
		return
	}
	user, err := h.profiles.UpdatePersonal(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Personal details updated successfully", user)
}

func (h *ProfileHandlers) UpdateMeasurements(c *gin.Context) {
	id, ok := idParam(c, "userId")
	if !ok {
		return
	}
	var req domain.Measurements
	if !bindJSON(c, &req, "") {
		return
	}
	user, err := h.profiles.UpdateMeasurements(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Body measurements updated successfully", user)
}

func (h *ProfileHandlers) UpdateBCA(c *gin.Context) {
	id, ok := idParam(c, "userId")
	if !ok {
		return
	}
	var req domain.BCA
	if !bindJSON(c, &req, "") {
		return
	}
	user, err := h.profiles.UpdateBCA(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Body composition analysis updated successfully", user)
}

// Update applies any of the three sections in one request.
func (h *ProfileHandlers) Update(c *gin.Context) {
	id, ok := idParam(c, "userId")
	if !ok {
		return
	}
	var req domain.ProfileUpdate
	if !bindJSON(c, &req, "") {
		return
	}
	user, err := h.profiles.UpdateProfile(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Profile updated successfully", user)
}
