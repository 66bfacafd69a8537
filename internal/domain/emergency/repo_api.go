package emergency

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/relief/relief/internal/platform/apiclient"
	"github.com/relief/relief/internal/platform/upload"
)

const basePath = "/emergency/patient"

type requestRepoAPI struct{ client *apiclient.Client }

func NewRequestRepoAPI(client *apiclient.Client) RequestRepository {
	return &requestRepoAPI{client: client}
}

type idRef struct {
	ID string `json:"_id"`
}

type createdData struct {
	ID      string `json:"_id"`
	Request *idRef `json:"request"`
}

func (r *requestRepoAPI) Create(ctx context.Context, body CreateBody) (string, error) {
	var env apiclient.Envelope[createdData]
	if err := r.client.Post(ctx, basePath+"/create_emergency_request", body, &env); err != nil {
		return "", err
	}
	id := env.Data.ID
	if id == "" && env.Data.Request != nil {
		id = env.Data.Request.ID
	}
	if id == "" {
		return "", fmt.Errorf("create emergency request: response carried no id")
	}
	return id, nil
}

func (r *requestRepoAPI) Get(ctx context.Context, id string) (*Request, error) {
	var env apiclient.Envelope[struct {
		Request *Request `json:"request"`
	}]
	if err := r.client.Get(ctx, basePath+"/get_hospital_responses/"+id+"/", &env); err != nil {
		return nil, err
	}
	if env.Data.Request == nil {
		return nil, ErrNotFound
	}
	return env.Data.Request, nil
}

func (r *requestRepoAPI) ListByStatus(ctx context.Context, status Status) ([]Summary, error) {
	var env apiclient.Envelope[json.RawMessage]
	body := map[string]string{"status": string(status)}
	if err := r.client.Post(ctx, basePath+"/get_emergency_requests_by_status", body, &env); err != nil {
		return nil, err
	}
	return decodeSummaries(env.Data)
}

// decodeSummaries accepts either a bare list or {"requests": [...]}.
func decodeSummaries(raw json.RawMessage) ([]Summary, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []Summary{}, nil
	}
	var list []Summary
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Requests []Summary `json:"requests"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode request list: %w", err)
	}
	if wrapped.Requests == nil {
		return []Summary{}, nil
	}
	return wrapped.Requests, nil
}

func (r *requestRepoAPI) Finalize(ctx context.Context, id, hospitalID string) error {
	body := map[string]string{"hospitalId": hospitalID}
	return r.client.Post(ctx, basePath+"/finalize_emergency_request/"+id, body, nil)
}

func (r *requestRepoAPI) Cancel(ctx context.Context, id string) error {
	return r.client.Post(ctx, basePath+"/cancel_emergency_request/"+id, nil, nil)
}

func (r *requestRepoAPI) UploadPhoto(ctx context.Context, id string, photo *upload.Photo) error {
	return r.client.PostMultipart(ctx, basePath+"/upload_emergency_request_photo", apiclient.Multipart{
		Fields:    map[string]string{"emergencyRequestId": id},
		FileField: "file",
		FileName:  photo.FileName,
		File:      photo.Reader(),
	}, nil)
}
