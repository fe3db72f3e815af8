package api

import (
	"alcyxob/totalfit/internal/domain"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// PlanHandler exposes the plan lifecycle of the signed-in identity.
// Every method answers with the controller snapshot unless noted.
type PlanHandler struct{}

func NewPlanHandler() *PlanHandler {
	return &PlanHandler{}
}

// --- DTOs ---

type EvolveRequest struct {
	Weight   float64 `json:"weight" binding:"required,gt=0"`
	Feedback string  `json:"feedback"`
}

type NotesRequest struct {
	Notes string `json:"notes"`
}

type ExportResponse struct {
	URL string `json:"url"`
}

// --- Handler Methods ---

// GetState returns the current snapshot.
func (h *PlanHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, controllerFromContext(c).Snapshot())
}

// CreateNew godoc
// @Summary Start a new plan (opens the intake form)
// @Tags Plans
// @Security BearerAuth
// @Router /plans/new [post]
func (h *PlanHandler) CreateNew(c *gin.Context) {
	snap, err := controllerFromContext(c).CreateNew()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Generate godoc
// @Summary Generate a plan from the intake
// @Description Blocks until the AI call finishes. A failed generation answers 200 with state "error".
// @Tags Plans
// @Accept json
// @Security BearerAuth
// @Param intake body domain.UserProfileInput true "Intake"
// @Failure 400 {object} gin.H "Missing or non-positive age, weight, height or days"
// @Failure 409 {object} gin.H "Another generation is in progress"
// @Router /plans/generate [post]
func (h *PlanHandler) Generate(c *gin.Context) {
	var req domain.UserProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	snap, err := controllerFromContext(c).Submit(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Evolve godoc
// @Summary Evolve the plan whose 7-day cycle has ended
// @Tags Plans
// @Accept json
// @Security BearerAuth
// @Param checkin body EvolveRequest true "New weight and feedback"
// @Failure 409 {object} gin.H "No plan is ready to evolve"
// @Router /plans/evolve [post]
func (h *PlanHandler) Evolve(c *gin.Context) {
	var req EvolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	snap, err := controllerFromContext(c).ConfirmEvolution(c.Request.Context(), domain.EvolutionFeedback{
		Weight:   req.Weight,
		Feedback: req.Feedback,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Save godoc
// @Summary Save the plan on screen
// @Tags Plans
// @Security BearerAuth
// @Failure 409 {object} gin.H "Nothing to save or already saved"
// @Failure 503 {object} gin.H "Storage unavailable"
// @Router /plans/save [post]
func (h *PlanHandler) Save(c *gin.Context) {
	snap, err := controllerFromContext(c).Save(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

// Dashboard returns to the saved plan list.
func (h *PlanHandler) Dashboard(c *gin.Context) {
	snap, err := controllerFromContext(c).Dashboard(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// ListPlans returns the dashboard cards, newest first.
func (h *PlanHandler) ListPlans(c *gin.Context) {
	snap, err := controllerFromContext(c).Dashboard(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": snap.Plans, "eligiblePlanId": snap.EligiblePlanID})
}

// GetPlan godoc
// @Summary Get one saved plan
// @Tags Plans
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Success 200 {object} domain.SavedPlan
// @Failure 404 {object} gin.H "Plan not found"
// @Router /plans/{planId} [get]
func (h *PlanHandler) GetPlan(c *gin.Context) {
	plan, err := controllerFromContext(c).Plan(c.Request.Context(), c.Param("planId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// ViewPlan shows a saved plan (state "result").
func (h *PlanHandler) ViewPlan(c *gin.Context) {
	snap, err := controllerFromContext(c).View(c.Request.Context(), c.Param("planId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// UpdateNotes replaces the personal notes of a plan.
func (h *PlanHandler) UpdateNotes(c *gin.Context) {
	var req NotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	snap, err := controllerFromContext(c).UpdateNotes(c.Request.Context(), c.Param("planId"), req.Notes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// StampNotes appends today's date header to the notes of a plan.
func (h *PlanHandler) StampNotes(c *gin.Context) {
	snap, err := controllerFromContext(c).StampNotes(c.Request.Context(), c.Param("planId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// DeletePlan removes a saved plan.
func (h *PlanHandler) DeletePlan(c *gin.Context) {
	snap, err := controllerFromContext(c).Delete(c.Request.Context(), c.Param("planId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// ExportPlan godoc
// @Summary Export a saved plan
// @Description Uploads a JSON snapshot and returns a temporary download URL.
// @Tags Plans
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Success 200 {object} ExportResponse
// @Failure 501 {object} gin.H "Export not configured"
// @Router /plans/{planId}/export [post]
func (h *PlanHandler) ExportPlan(c *gin.Context) {
	url, err := controllerFromContext(c).Export(c.Request.Context(), c.Param("planId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ExportResponse{URL: url})
}

// DismissReminder hides the hydration reminder.
func (h *PlanHandler) DismissReminder(c *gin.Context) {
	ctrl := controllerFromContext(c)
	ctrl.DismissReminder()
	c.JSON(http.StatusOK, ctrl.Snapshot())
}
