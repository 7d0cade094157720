package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/goodjobs/shiftbot/internal/applicant"
	"github.com/goodjobs/shiftbot/internal/job"
	"github.com/goodjobs/shiftbot/internal/ledger"
	"github.com/goodjobs/shiftbot/internal/models"
)

// Register mounts the management API under /api/admin. Everything past
// /login requires a bearer token.
func (a *API) Register(router gin.IRouter) {
	grp := router.Group("/api/admin")
	grp.POST("/login", a.login)

	authed := grp.Group("", a.authRequired())
	authed.GET("/jobs", a.listJobs)
	authed.POST("/jobs", a.createJob)
	authed.GET("/jobs/:id", a.getJob)
	authed.DELETE("/jobs/:id", a.deleteJob)
	authed.GET("/jobs/:id/applications", a.listJobApplications)
	authed.GET("/users", a.listUsers)
}

// jobResponse is the wire form of one posting.
type jobResponse struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Location         string   `json:"location"`
	Date             string   `json:"date"`
	Shifts           []string `json:"shifts"`
	LocationImageURL string   `json:"location_image_url,omitempty"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
}

func toJobResponse(p *models.JobPosting) jobResponse {
	return jobResponse{
		ID:               p.ID,
		Name:             p.Name,
		Location:         p.Location,
		Date:             p.Date,
		Shifts:           p.ShiftList(),
		LocationImageURL: p.LocationImageURL,
		Latitude:         p.Latitude,
		Longitude:        p.Longitude,
	}
}

func (a *API) listJobs(c *gin.Context) {
	postings, err := job.List(a.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list jobs failed"})
		return
	}
	out := make([]jobResponse, 0, len(postings))
	for i := range postings {
		out = append(out, toJobResponse(&postings[i]))
	}
	c.JSON(http.StatusOK, gin.H{"jobs": out})
}

type createJobRequest struct {
	Name             string   `json:"name" binding:"required"`
	Location         string   `json:"location" binding:"required"`
	Date             string   `json:"date" binding:"required"`
	Shifts           []string `json:"shifts" binding:"required,min=1"`
	LocationImageURL string   `json:"location_image_url" binding:"omitempty,url"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
}

func (a *API) createJob(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	posting, err := job.Create(c.Request.Context(), a.DB, a.Geo, job.CreateOpts{
		Name:             req.Name,
		Location:         req.Location,
		Date:             req.Date,
		Shifts:           req.Shifts,
		LocationImageURL: req.LocationImageURL,
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, toJobResponse(posting))
}

func (a *API) getJob(c *gin.Context) {
	posting, err := job.Get(a.DB, c.Param("id"))
	if errors.Is(err, job.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get job failed"})
		return
	}
	c.JSON(http.StatusOK, toJobResponse(posting))
}

func (a *API) deleteJob(c *gin.Context) {
	err := job.Delete(a.DB, c.Param("id"))
	if errors.Is(err, job.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete job failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

// applicationResponse is the wire form of one application record.
type applicationResponse struct {
	ID         string `json:"id"`
	JobID      string `json:"job_id"`
	LineUserID string `json:"line_user_id"`
	UserName   string `json:"user_name"`
	Shift      string `json:"shift"`
	AppliedAt  string `json:"applied_at"`
}

func (a *API) listJobApplications(c *gin.Context) {
	jobID := c.Param("id")
	if _, err := job.Get(a.DB, jobID); err != nil {
		if errors.Is(err, job.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get job failed"})
		return
	}

	apps, err := ledger.ListByJob(a.DB, jobID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list applications failed"})
		return
	}

	out := make([]applicationResponse, 0, len(apps))
	for _, app := range apps {
		out = append(out, applicationResponse{
			ID:         app.ID,
			JobID:      app.JobID,
			LineUserID: app.LineUserID,
			UserName:   app.UserName,
			Shift:      app.Shift,
			AppliedAt:  app.AppliedAt.Format("2006-01-02 15:04:05"),
		})
	}
	c.JSON(http.StatusOK, gin.H{"job_id": jobID, "applications": out})
}

// userResponse is the wire form of one worker account. The phone and
// address are operator-visible; password hashes never leave the store.
type userResponse struct {
	ID         string `json:"id"`
	LineUserID string `json:"line_user_id"`
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	Email      string `json:"email,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func (a *API) listUsers(c *gin.Context) {
	accts, err := applicant.ListWorkers(a.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list users failed"})
		return
	}

	out := make([]userResponse, 0, len(accts))
	for _, acct := range accts {
		out = append(out, userResponse{
			ID:         acct.ID,
			LineUserID: acct.LineUserID,
			FullName:   acct.FullName,
			Phone:      acct.Phone,
			Address:    acct.Address,
			Email:      acct.Email,
			CreatedAt:  acct.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}
