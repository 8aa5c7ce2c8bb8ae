package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/you/gymdesk/domain"
	"github.com/you/gymdesk/internal/pkg/response"
)

type PolicyHandlers struct{ policies domain.PolicyService }

func NewPolicyHandlers(policies domain.PolicyService) *PolicyHandlers {
	return &PolicyHandlers{policies: policies}
}

type policyReq struct {
	Role     string `json:"role" binding:"required"`
	Resource string `json:"resource" binding:"required"`
	Action   string `json:"action" binding:"required"`
}

func (h *PolicyHandlers) List(c *gin.Context) {
	response.OK(c, "", h.policies.GetPolicies())
}

func (h *PolicyHandlers) Add(c *gin.Context) {
	var r policyReq
	if !bindJSON(c, &r, "") {
		return
	}
	if err := h.policies.AddPolicy(r.Role, r.Resource, r.Action); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Policy added successfully", r)
}

func (h *PolicyHandlers) Remove(c *gin.Context) {
	var r policyReq
	if !bindJSON(c, &r, "") {
		return
	}
	if err := h.policies.RemovePolicy(r.Role, r.Resource, r.Action); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Policy removed successfully", nil)
}
