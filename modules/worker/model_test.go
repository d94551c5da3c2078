package worker

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testimonial-canvas-server/modules/render"
)

func TestRedisKeyNaming(t *testing.T) {
	assert.Equal(t, "testimonial:job:abc:payload", payloadKey("abc"))
	assert.Equal(t, "testimonial:job:abc", statusKey("abc"))
}

func TestJobPayloadRoundTrip(t *testing.T) {
	payload := JobPayload{
		JobID:  "job-1",
		Images: []string{"aGVsbG8="},
		Style:  render.Options{Preset: "instagram_story", Layout: "collage", CollageColumns: 3},
	}

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded JobPayload
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, payload.JobID, decoded.JobID)
	assert.Equal(t, payload.Images, decoded.Images)
	assert.Equal(t, "instagram_story", decoded.Style.Preset)
	assert.Equal(t, 3, decoded.Style.CollageColumns)
}

func TestHubPublishWithoutSubscribers(t *testing.T) {
	// 구독자가 없는 작업에 대한 publish는 아무 일도 하지 않아야 한다
	assert.NotPanics(t, func() {
		GetHub().Publish("nobody-listening", JobStatus{Status: StatusCompleted})
	})
}
