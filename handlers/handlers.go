// Package handlers exposes the training API over HTTP. Trainings are
// addressed by their composite training id everywhere; live status always
// comes from the owning backend, the record store only caches it.
package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trainops/trainerd/middleware"
	"github.com/trainops/trainerd/module"
	"github.com/trainops/trainerd/store"
	"github.com/trainops/trainerd/training"
)

// Recorder is the slice of the record store the handlers need.
type Recorder interface {
	Create(rec *store.TrainingRecord) error
	Get(id string) (*store.TrainingRecord, error)
	List(trainer, owner string) ([]store.TrainingRecord, error)
	UpdateStatus(id string, status training.Status, message string) error
	Delete(id string) error
}

// Handler handles HTTP requests.
type Handler struct {
	trainers map[string]training.Trainer
	records  Recorder
}

// NewHandler creates a handler over the configured trainer instances,
// keyed by instance name.
func NewHandler(trainers map[string]training.Trainer, records Recorder) *Handler {
	return &Handler{
		trainers: trainers,
		records:  records,
	}
}

// CreateTraining handles POST /api/v1/trainings
func (h *Handler) CreateTraining(c *gin.Context) {
	var req TrainingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("Invalid request payload: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request payload",
			"details": err.Error(),
		})
		return
	}

	trainer, ok := h.trainers[req.Trainer]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown trainer " + req.Trainer})
		return
	}

	mod, err := module.Get(req.Module)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	future, err := trainer.Train(ctx, mod, training.TrainRequest{
		Params:     req.Params,
		SavePath:   req.SavePath,
		SaveWithID: req.SaveWithID,
	})
	if err != nil {
		log.Printf("Failed to dispatch training: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to dispatch training",
			"details": err.Error(),
		})
		return
	}

	_, jobID, err := training.ParseID(future.ID())
	if err != nil {
		// The backend issued an id it cannot have issued.
		log.Printf("Backend produced unparsable training id %q: %v", future.ID(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Backend produced an invalid training id"})
		return
	}

	rec := &store.TrainingRecord{
		ID:       future.ID(),
		Trainer:  req.Trainer,
		JobID:    jobID,
		Module:   req.Module,
		Owner:    middleware.UserFrom(c),
		Status:   string(training.StatusQueued),
		SavePath: future.SavePath(),
	}
	if err := h.records.Create(rec); err != nil {
		log.Printf("Failed to record training %s: %v", future.ID(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record training"})
		return
	}

	log.Printf("Dispatched training %s (trainer %s, module %s)", future.ID(), req.Trainer, req.Module)
	c.JSON(http.StatusCreated, toResponse(rec))
}

// ListTrainings handles GET /api/v1/trainings
// With identity middleware installed, listings are scoped to the caller.
func (h *Handler) ListTrainings(c *gin.Context) {
	recs, err := h.records.List(c.Query("trainer"), middleware.UserFrom(c))
	if err != nil {
		log.Printf("Failed to list trainings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list trainings"})
		return
	}

	responses := make([]TrainingResponse, 0, len(recs))
	for i := range recs {
		responses = append(responses, toResponse(&recs[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// GetTraining handles GET /api/v1/trainings/:id
func (h *Handler) GetTraining(c *gin.Context) {
	rec, err := h.records.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Training not found"})
		return
	}
	c.JSON(http.StatusOK, toResponse(rec))
}

// GetTrainingStatus handles GET /api/v1/trainings/:id/status
// It reports the backend's live status, not the cached record.
func (h *Handler) GetTrainingStatus(c *gin.Context) {
	id := c.Param("id")

	future, status, err := h.resolveFuture(id)
	if err != nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	state, err := future.GetStatus(ctx)
	if err != nil {
		log.Printf("Failed to get status for %s: %v", id, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to reach training backend"})
		return
	}

	c.JSON(http.StatusOK, StatusResponse{
		ID:       id,
		Status:   string(state),
		Terminal: state.Terminal(),
	})
}

// CancelTraining handles POST /api/v1/trainings/:id/cancel
func (h *Handler) CancelTraining(c *gin.Context) {
	id := c.Param("id")

	future, status, err := h.resolveFuture(id)
	if err != nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := future.Cancel(ctx); err != nil {
		log.Printf("Failed to cancel training %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel training"})
		return
	}

	// Cancellation is asynchronous; the monitor will record the final state.
	log.Printf("Requested cancellation of training %s", id)
	c.JSON(http.StatusAccepted, gin.H{"message": "Cancellation requested"})
}

// logProvider is implemented by backends whose jobs produce readable logs.
type logProvider interface {
	Logs(ctx context.Context) (string, error)
}

// GetTrainingLogs handles GET /api/v1/trainings/:id/logs
func (h *Handler) GetTrainingLogs(c *gin.Context) {
	id := c.Param("id")

	future, status, err := h.resolveFuture(id)
	if err != nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	lp, ok := future.(logProvider)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Backend does not expose logs"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logs, err := lp.Logs(ctx)
	if err != nil {
		log.Printf("Failed to get logs for %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get training logs"})
		return
	}
	c.String(http.StatusOK, logs)
}

// DeleteTraining handles DELETE /api/v1/trainings/:id
func (h *Handler) DeleteTraining(c *gin.Context) {
	id := c.Param("id")

	// Best effort: stop the job before dropping the record.
	if future, _, err := h.resolveFuture(id); err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := future.Cancel(ctx); err != nil {
			log.Printf("Failed to cancel training %s during delete: %v", id, err)
		}
	}

	if err := h.records.Delete(id); err != nil {
		log.Printf("Failed to delete training %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete training"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Training deleted"})
}

// resolveFuture routes a composite training id to its owning trainer and
// resolves the live future. The second return value is the HTTP status to
// use when the error is non-nil.
func (h *Handler) resolveFuture(id string) (training.ModelFuture, int, error) {
	trainerName, err := training.TrainerName(id)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	trainer, ok := h.trainers[trainerName]
	if !ok {
		return nil, http.StatusNotFound, errors.New("training belongs to an unconfigured trainer")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	future, err := trainer.GetModelFuture(ctx, id)
	if err != nil {
		if errors.Is(err, training.ErrNotFound) || errors.Is(err, training.ErrWrongTrainer) {
			return nil, http.StatusNotFound, err
		}
		return nil, http.StatusInternalServerError, err
	}
	return future, http.StatusOK, nil
}

func toResponse(rec *store.TrainingRecord) TrainingResponse {
	return TrainingResponse{
		ID:        rec.ID,
		Trainer:   rec.Trainer,
		Module:    rec.Module,
		Owner:     rec.Owner,
		Status:    rec.Status,
		Message:   rec.Message,
		SavePath:  rec.SavePath,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}
