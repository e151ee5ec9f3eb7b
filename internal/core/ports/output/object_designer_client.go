package ports

import (
	"context"
	"time"

	"object-designer-client/internal/core/domain"
)

// CreateGenerationRequest is the body of a generation submission.
type CreateGenerationRequest struct {
	Version       string             `json:"version"`
	LanguageModel string             `json:"languageModel"`
	Props         domain.ObjectProps `json:"props"`
}

// AddToRoomsRequest registers a generated object with the room service.
// URL points at the artifact; the bytes themselves are never forwarded.
type AddToRoomsRequest struct {
	Props domain.ObjectProps `json:"props"`
	URL   string             `json:"url"`
}

// ObjectDesignerClient defines the contract for the remote object designer service
type ObjectDesignerClient interface {
	// CreateGeneration submits a generation and returns the server-issued task ID
	CreateGeneration(ctx context.Context, req CreateGenerationRequest) (string, error)

	// PollEnded issues one long-poll status query. It reports true once the
	// task is terminal and false while the server still considers it pending.
	PollEnded(ctx context.Context, taskID string, longPoll time.Duration) (bool, error)

	// GetObjectState fetches every version entry of the object
	GetObjectState(ctx context.Context, taskID string) (*domain.ObjectState, error)

	// GetContent downloads the binary artifact of one version
	GetContent(ctx context.Context, taskID, version string) (*domain.Artifact, error)

	// GetCode downloads the generator source of one version
	GetCode(ctx context.Context, taskID, version string) (string, error)

	// AddToRooms hands a generated object to the downstream room registry
	AddToRooms(ctx context.Context, req AddToRoomsRequest) error

	// ContentURL is the absolute URL GetContent reads from
	ContentURL(taskID, version string) string
}
