package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	mongorepo "github.com/yoockh/hirelink/internal/repositories/mongo"
	"github.com/yoockh/hirelink/internal/services"
)

type PostingHandler struct {
	svc services.PostingService
}

func NewPostingHandler(svc services.PostingService) *PostingHandler {
	return &PostingHandler{svc: svc}
}

// PostingRequest is shared by create and update; on update omitted fields
// keep their stored value.
type PostingRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	RoleType    string   `json:"role_type"`
	WorkMode    string   `json:"work_mode"`
	Location    string   `json:"location"`
	Tags        *string  `json:"tags"`
	Salary      *float64 `json:"salary"`
	Status      string   `json:"status"`
}

func (r PostingRequest) input() services.PostingInput {
	return services.PostingInput{
		Title:       r.Title,
		Description: r.Description,
		RoleType:    r.RoleType,
		WorkMode:    r.WorkMode,
		Location:    r.Location,
		Tags:        r.Tags,
		Salary:      r.Salary,
		Status:      r.Status,
	}
}

// Search serves the public catalog: ?role=&location=&type=
func (h *PostingHandler) Search(c *gin.Context) {
	rows, err := h.svc.Search(c.Request.Context(), mongorepo.PostingFilter{
		Title:    c.Query("role"),
		Location: c.Query("location"),
		RoleType: c.Query("type"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *PostingHandler) Get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PostingHandler) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req PostingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, invalidBody("PostingHandler.Create", err))
		return
	}

	p, err := h.svc.Create(c.Request.Context(), userID, req.input())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *PostingHandler) Update(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req PostingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, invalidBody("PostingHandler.Update", err))
		return
	}

	p, err := h.svc.Update(c.Request.Context(), userID, c.Param("id"), req.input())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PostingHandler) ListMine(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	rows, err := h.svc.ListMine(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *PostingHandler) Stats(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	stats, err := h.svc.Stats(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
