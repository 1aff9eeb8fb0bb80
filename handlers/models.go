package handlers

import "time"

// TrainingRequest is the POST /api/v1/trainings payload.
type TrainingRequest struct {
	Trainer    string         `json:"trainer" binding:"required"`
	Module     string         `json:"module" binding:"required"`
	Params     map[string]any `json:"params"`
	SavePath   string         `json:"savePath"`
	SaveWithID bool           `json:"saveWithId"`
}

// TrainingResponse is the representation of one training returned by the API.
type TrainingResponse struct {
	ID        string    `json:"id"`
	Trainer   string    `json:"trainer"`
	Module    string    `json:"module"`
	Owner     string    `json:"owner,omitempty"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	SavePath  string    `json:"savePath,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StatusResponse is the live status of one training.
type StatusResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Terminal bool   `json:"terminal"`
}
