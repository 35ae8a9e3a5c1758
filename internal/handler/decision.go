package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/gti/mgmt-dashboard/internal/middleware"
	"github.com/gti/mgmt-dashboard/internal/models"
	"github.com/gti/mgmt-dashboard/internal/service"
)

type DecisionHandler struct {
	engine   *service.DecisionEngine
	validate *validator.Validate
}

func NewDecisionHandler(engine *service.DecisionEngine) *DecisionHandler {
	return &DecisionHandler{
		engine:   engine,
		validate: validator.New(),
	}
}

// ListDecisions returns decisions, optionally filtered by status
// @Summary List decisions
// @Tags Decisions
// @Produce json
// @Param status query string false "Filter by status" Enums(pending, approved, rejected, auto-approved, escalated)
// @Success 200 {array} models.Decision "Decisions in creation order"
// @Failure 400 {object} models.ErrorResponse "Invalid status"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /api/decisions [get]
func (h *DecisionHandler) ListDecisions(c echo.Context) error {
	ctx := c.Request().Context()

	var (
		decisions []models.Decision
		err       error
	)
	switch status := models.DecisionStatus(c.QueryParam("status")); status {
	case "":
		decisions, err = h.engine.GetAllDecisions(ctx)
	case models.DecisionPending, models.DecisionApproved, models.DecisionRejected,
		models.DecisionAutoApproved, models.DecisionEscalated:
		decisions, err = h.engine.GetDecisionsByStatus(ctx, status)
	default:
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid status"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, decisions)
}

// GetDecision returns a single decision
// @Summary Get a decision
// @Tags Decisions
// @Produce json
// @Param id path string true "Decision ID"
// @Success 200 {object} models.Decision "Decision"
// @Failure 404 {object} models.ErrorResponse "Decision not found"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /api/decisions/{id} [get]
func (h *DecisionHandler) GetDecision(c echo.Context) error {
	d, err := h.engine.GetDecision(c.Request().Context(), c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
	}
	if d == nil {
		return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "decision not found"})
	}

	return c.JSON(http.StatusOK, d)
}

// CreateDecision raises a new decision and evaluates it against the rules
// @Summary Create a decision
// @Description Stores a pending decision, then applies the first matching rule and the auto-decision threshold
// @Tags Decisions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.CreateDecisionRequest true "Decision"
// @Success 201 {object} models.Decision "Decision after evaluation"
// @Failure 400 {object} models.ErrorResponse "Invalid request body"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /api/decisions [post]
func (h *DecisionHandler) CreateDecision(c echo.Context) error {
	var req models.CreateDecisionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
	}
	if req.Context.UserID == "" {
		req.Context.UserID = middleware.GetUserID(c)
	}

	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	}

	d, err := h.engine.CreateDecision(c.Request().Context(), req)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusCreated, d)
}

// ApproveDecision manually approves a decision
// @Summary Approve a decision
// @Description approvedBy falls back to the x-user-id header
// @Tags Decisions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Decision ID"
// @Param request body models.ApproveDecisionRequest true "Approval"
// @Success 200 {object} models.Decision "Approved decision"
// @Failure 400 {object} models.ErrorResponse "Invalid request body"
// @Failure 404 {object} models.ErrorResponse "Decision or option not found"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /api/decisions/{id}/approve [post]
func (h *DecisionHandler) ApproveDecision(c echo.Context) error {
	var req models.ApproveDecisionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
	}

	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	}

	approvedBy := req.ApprovedBy
	if approvedBy == "" {
		approvedBy = middleware.GetUserID(c)
	}

	d, err := h.engine.ApproveDecision(c.Request().Context(), c.Param("id"), req.OptionID, approvedBy, req.Reasoning)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
	}
	if d == nil {
		return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "decision or option not found"})
	}

	return c.JSON(http.StatusOK, d)
}

// RejectDecision manually rejects a decision
// @Summary Reject a decision
// @Description rejectedBy falls back to the x-user-id header
// @Tags Decisions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Decision ID"
// @Param request body models.RejectDecisionRequest false "Rejection"
// @Success 200 {object} models.Decision "Rejected decision"
// @Failure 400 {object} models.ErrorResponse "Invalid request body"
// @Failure 404 {object} models.ErrorResponse "Decision not found"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /api/decisions/{id}/reject [post]
func (h *DecisionHandler) RejectDecision(c echo.Context) error {
	var req models.RejectDecisionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
	}

	rejectedBy := middleware.UserIDOr(c, "")
	if req.RejectedBy != "" {
		rejectedBy = req.RejectedBy
	}

	d, err := h.engine.RejectDecision(c.Request().Context(), c.Param("id"), rejectedBy, req.Reasoning)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
	}
	if d == nil {
		return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "decision not found"})
	}

	return c.JSON(http.StatusOK, d)
}

// ProvideFeedback rates the outcome of a resolved decision
// @Summary Rate a decision outcome
// @Tags Decisions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Decision ID"
// @Param request body models.FeedbackRequest true "Feedback"
// @Success 204 "Feedback recorded"
// @Failure 400 {object} models.ErrorResponse "Invalid request body"
// @Failure 404 {object} models.ErrorResponse "No history for decision"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /api/decisions/{id}/feedback [post]
func (h *DecisionHandler) ProvideFeedback(c echo.Context) error {
	var req models.FeedbackRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
	}

	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	}

	ok, err := h.engine.ProvideFeedback(c.Request().Context(), c.Param("id"), req.Rating, req.Comments)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "no history for decision"})
	}

	return c.NoContent(http.StatusNoContent)
}

// GetHistory returns the full decision history
// @Summary Decision history
// @Tags Decisions
// @Produce json
// @Success 200 {array} models.DecisionHistory "History in append order"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /api/decisions/history [get]
func (h *DecisionHandler) GetHistory(c echo.Context) error {
	history, err := h.engine.GetDecisionHistory(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, history)
}

// GetDecisionHistory returns the history entries of one decision
// @Summary History of a decision
// @Tags Decisions
// @Produce json
// @Param id path string true "Decision ID"
// @Success 200 {array} models.DecisionHistory "History entries"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /api/decisions/{id}/history [get]
func (h *DecisionHandler) GetDecisionHistory(c echo.Context) error {
	history, err := h.engine.GetDecisionHistoryForDecision(c.Request().Context(), c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, history)
}

// ListRules returns the rules in evaluation order
// @Summary List decision rules
// @Tags Rules
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} models.DecisionRule "Rules sorted by priority"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /api/rules [get]
func (h *DecisionHandler) ListRules(c echo.Context) error {
	rules, err := h.engine.ListRules(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, rules)
}

// CreateRule adds a decision rule
// @Summary Add a decision rule
// @Description Only decisions created afterwards are evaluated against the new rule
// @Tags Rules
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.CreateRuleRequest true "Rule"
// @Success 201 {object} models.DecisionRule "Stored rule"
// @Failure 400 {object} models.ErrorResponse "Invalid request body"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /api/rules [post]
func (h *DecisionHandler) CreateRule(c echo.Context) error {
	var req models.CreateRuleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
	}

	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	}

	rule, err := h.engine.AddRule(c.Request().Context(), req.Rule())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusCreated, rule)
}

// DeleteRule removes a decision rule
// @Summary Remove a decision rule
// @Tags Rules
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Rule ID"
// @Success 200 {object} models.DeleteRuleResponse "Removal result"
// @Failure 404 {object} models.ErrorResponse "Rule not found"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /api/rules/{id} [delete]
func (h *DecisionHandler) DeleteRule(c echo.Context) error {
	removed, err := h.engine.RemoveRule(c.Request().Context(), c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
	}
	if !removed {
		return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "rule not found"})
	}

	return c.JSON(http.StatusOK, models.DeleteRuleResponse{Success: true})
}
