package training

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/trainops/trainerd/hasher"
)

// IDDelimiter separates the encoded trainer name from the backend job id in
// a composite training id. The encoding alphabet excludes it, so the first
// occurrence always marks the boundary.
const IDDelimiter = ":"

// NewID builds the composite training id for a job: the encoded trainer
// instance name joined to the backend-assigned job id.
func NewID(trainerName, jobID string) (string, error) {
	token, err := hasher.Encode(trainerName)
	if err != nil {
		return "", fmt.Errorf("encoding trainer name %q: %w", trainerName, err)
	}
	return token + IDDelimiter + jobID, nil
}

// ParseID splits a composite training id into the originating trainer's
// instance name and the backend job id.
func ParseID(trainingID string) (trainerName, jobID string, err error) {
	token, jobID, found := strings.Cut(trainingID, IDDelimiter)
	if !found {
		return "", "", fmt.Errorf("%w: %q has no %q delimiter", ErrMalformedID, trainingID, IDDelimiter)
	}

	trainerName, err = hasher.Decode(token)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrMalformedID, err)
	}
	return trainerName, jobID, nil
}

// TrainerName recovers the originating trainer's instance name from a
// composite training id.
func TrainerName(trainingID string) (string, error) {
	name, _, err := ParseID(trainingID)
	return name, err
}

// SavePathWithID derives the effective save path for a future. An empty
// base path stays empty. When saveWithID is set and the training id does
// not already occur in the path, the id is injected as a directory segment
// directly above the final path element. The "already occurs" check is a
// plain substring match, anywhere in the path, on purpose.
func SavePathWithID(savePath string, saveWithID bool, trainingID string) string {
	if savePath == "" {
		return ""
	}
	if !saveWithID || strings.Contains(savePath, trainingID) {
		return savePath
	}

	dir, leaf := filepath.Split(savePath)
	return filepath.Join(dir, trainingID, leaf)
}
