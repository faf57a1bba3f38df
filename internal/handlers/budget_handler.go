package handler

import (
	"net/http"

	"budget-buddy-backend/internal/models"
	"budget-buddy-backend/internal/services/sheetstore"

	"github.com/gin-gonic/gin"
)

type BudgetHandler struct {
	store *sheetstore.Store
}

func NewBudgetHandler(store *sheetstore.Store) *BudgetHandler {
	return &BudgetHandler{store: store}
}

// ListBudgets returns the stored budget definitions.
func (h *BudgetHandler) ListBudgets(c *gin.Context) {
	budgets, err := h.store.ListBudgets()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"budgets": budgets})
}

// SaveBudget creates a budget or updates the one with the same id.
func (h *BudgetHandler) SaveBudget(c *gin.Context) {
	var budget models.Budget
	if err := c.BindJSON(&budget); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if budget.Category == "" || budget.Limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category and a positive limit are required"})
		return
	}
	saved, err := h.store.SaveBudget(budget)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "budget saved", "budget": saved})
}

// DeleteBudget removes one budget by id.
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	if err := h.store.DeleteBudget(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "budget deleted"})
}

// ListGoals returns every goal with its progress percentage filled in.
func (h *BudgetHandler) ListGoals(c *gin.Context) {
	goals, err := h.store.ListGoals()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	for i := range goals {
		goals[i].ProgressPercentage = goalProgress(h.store, goals[i])
	}
	c.JSON(http.StatusOK, gin.H{"goals": goals})
}

func goalProgress(store *sheetstore.Store, g models.Goal) float64 {
	current := g.CurrentAmount
	if txs, err := store.ListGoalTransactions(g.ID); err == nil {
		for _, tx := range txs {
			current += tx.Amount
		}
	}
	if g.TargetAmount <= 0 {
		return 0
	}
	pct := current / g.TargetAmount * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

// SaveGoal creates a goal or updates the one with the same id.
func (h *BudgetHandler) SaveGoal(c *gin.Context) {
	var goal models.Goal
	if err := c.BindJSON(&goal); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if goal.Name == "" || goal.TargetAmount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and a positive target amount are required"})
		return
	}
	saved, err := h.store.SaveGoal(goal)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "goal saved", "goal": saved})
}

// DeleteGoal removes one goal by id.
func (h *BudgetHandler) DeleteGoal(c *gin.Context) {
	if err := h.store.DeleteGoal(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "goal deleted"})
}

// AddGoalTransaction records a manual contribution toward a goal.
func (h *BudgetHandler) AddGoalTransaction(c *gin.Context) {
	var tx models.GoalTransaction
	if err := c.BindJSON(&tx); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	tx.GoalID = c.Param("id")
	if tx.Amount == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be non-zero"})
		return
	}
	saved, err := h.store.AppendGoalTransaction(tx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "transaction recorded", "transaction": saved})
}

// ListGoalTransactions returns the contributions recorded for one goal.
func (h *BudgetHandler) ListGoalTransactions(c *gin.Context) {
	txs, err := h.store.ListGoalTransactions(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}
