package profile

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/relief/relief/internal/platform/apiclient"
)

const basePath = "/users/patient"

type repoAPI struct{ client *apiclient.Client }

func NewRepoAPI(client *apiclient.Client) Repository {
	return &repoAPI{client: client}
}

func (r *repoAPI) Get(ctx context.Context) (*Profile, error) {
	var env apiclient.Envelope[json.RawMessage]
	if err := r.client.Get(ctx, basePath+"/profile", &env); err != nil {
		return nil, err
	}
	return decodeProfile(env.Data)
}

// decodeProfile accepts the profile as the data object or nested under
// "patient".
func decodeProfile(raw json.RawMessage) (*Profile, error) {
	var wrapped struct {
		Patient *Profile `json:"patient"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Patient != nil {
		return wrapped.Patient, nil
	}
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &p, nil
}

func (r *repoAPI) UpdatePersonal(ctx context.Context, body PersonalBody) error {
	return r.client.Put(ctx, basePath+"/update-profile/", body, nil)
}

func (r *repoAPI) AddContact(ctx context.Context, c Contact) error {
	c.ID = ""
	return r.client.Post(ctx, basePath+"/emergency-contacts", c, nil)
}

func (r *repoAPI) UpdateContact(ctx context.Context, id string, c Contact) error {
	c.ID = ""
	return r.client.Put(ctx, basePath+"/emergency-contacts/"+id, c, nil)
}

func (r *repoAPI) DeleteContact(ctx context.Context, id string) error {
	return r.client.Delete(ctx, basePath+"/emergency-contacts/"+id, nil)
}

func (r *repoAPI) SaveHistory(ctx context.Context, item HistoryItem) error {
	body, err := historyBody(item)
	if err != nil {
		return err
	}
	return r.client.Post(ctx, basePath+"/medical-history/"+string(item.Kind()), body, nil)
}

// historyBody moves the item id from "_id" to "itemId", which is how the
// backend tells an update from a create.
func historyBody(item HistoryItem) (map[string]any, error) {
	raw, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	delete(body, "_id")
	if id := item.ItemID(); id != "" {
		body["itemId"] = id
	}
	return body, nil
}

func (r *repoAPI) DeleteHistory(ctx context.Context, kind Kind, id string) error {
	return r.client.Delete(ctx, basePath+"/medical-history/"+string(kind)+"/"+id, nil)
}
