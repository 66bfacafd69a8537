package identity

import (
	"context"
	"encoding/json"

	"github.com/relief/relief/internal/platform/apiclient"
)

type repoAPI struct{ client *apiclient.Client }

func NewRepoAPI(client *apiclient.Client) Repository {
	return &repoAPI{client: client}
}

func (r *repoAPI) Login(ctx context.Context, body LoginBody) (*User, error) {
	var env apiclient.Envelope[json.RawMessage]
	if err := r.client.Post(ctx, "/users/login", body, &env); err != nil {
		return nil, err
	}
	return decodeUser(env.Data), nil
}

func (r *repoAPI) Register(ctx context.Context, body RegisterBody) (*User, error) {
	var env apiclient.Envelope[json.RawMessage]
	if err := r.client.Post(ctx, "/users/register", body, &env); err != nil {
		return nil, err
	}
	return decodeUser(env.Data), nil
}

// decodeUser accepts the user either as the data object itself or nested
// under "user". Anything unrecognisable yields nil.
func decodeUser(raw json.RawMessage) *User {
	if len(raw) == 0 {
		return nil
	}
	var wrapped struct {
		User *User `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User != nil && wrapped.User.ID != "" {
		return wrapped.User
	}
	var u User
	if err := json.Unmarshal(raw, &u); err == nil && u.ID != "" {
		return &u
	}
	return nil
}
