package queue

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TaskTypeResolveMail is the task type for one photographed mail item.
const TaskTypeResolveMail = "mail:resolve"

// ResolvePayload is the job payload enqueued by the capture frontend's API.
type ResolvePayload struct {
	JobID       string `json:"jobId"`
	CompanyID   string `json:"companyId"`
	CompanyName string `json:"companyName,omitempty"`
	Filename    string `json:"filename,omitempty"`
	ExtraPages  int    `json:"extraPages,omitempty"`
	Image       []byte `json:"-"` // handled by the custom (un)marshalers below
}

// UnmarshalJSON handles the two image encodings the TypeScript enqueuer has
// used: a plain base64 string (current) and a Node.js Buffer object (legacy).
func (p *ResolvePayload) UnmarshalJSON(data []byte) error {
	type alias ResolvePayload
	aux := &struct {
		Image interface{} `json:"image,omitempty"`
		*alias
	}{
		alias: (*alias)(p),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("failed to unmarshal resolve payload: %w", err)
	}

	if aux.Image == nil {
		return nil
	}

	switch v := aux.Image.(type) {
	case string:
		decoded, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return fmt.Errorf("failed to decode base64 image: %w", err)
		}
		p.Image = decoded

	case map[string]interface{}:
		bufferType, _ := v["type"].(string)
		if bufferType != "Buffer" {
			return fmt.Errorf("invalid Buffer object format (missing or incorrect 'type' field)")
		}
		dataArray, ok := v["data"].([]interface{})
		if !ok {
			return fmt.Errorf("Buffer object missing 'data' array")
		}
		p.Image = make([]byte, len(dataArray))
		for i, val := range dataArray {
			byteVal, ok := val.(float64)
			if !ok {
				return fmt.Errorf("invalid byte value in Buffer data array at index %d", i)
			}
			p.Image[i] = byte(byteVal)
		}

	default:
		return fmt.Errorf("image must be either base64 string or Buffer object, got %T", v)
	}

	return nil
}

// MarshalJSON emits the image as a base64 string, matching the current
// enqueuer format.
func (p ResolvePayload) MarshalJSON() ([]byte, error) {
	type alias ResolvePayload
	return json.Marshal(&struct {
		Image string `json:"image,omitempty"`
		alias
	}{
		Image: base64.StdEncoding.EncodeToString(p.Image),
		alias: alias(p),
	})
}

// NewResolveTask builds an asynq task for one mail photo.
func NewResolveTask(payload *ResolvePayload) (*asynq.Task, error) {
	if payload.JobID == "" {
		return nil, fmt.Errorf("job ID is required")
	}
	if payload.CompanyID == "" {
		return nil, fmt.Errorf("company ID is required")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resolve payload: %w", err)
	}

	return asynq.NewTask(TaskTypeResolveMail, data), nil
}
