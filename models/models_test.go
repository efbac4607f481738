package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"shareanything/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPost(t *testing.T) {
	now := time.Date(2024, 5, 17, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		fields   map[string]string
		expected models.Post
	}{
		{
			name:   "empty fields use defaults",
			fields: map[string]string{},
			expected: models.Post{
				Title:  "No title",
				Author: "No author",
				Date:   now,
				Body:   "NA",
			},
		},
		{
			name:   "given fields override defaults",
			fields: map[string]string{"title": "Hi", "body": "World"},
			expected: models.Post{
				Title:  "Hi",
				Author: "No author",
				Date:   now,
				Body:   "World",
			},
		},
		{
			name:   "unknown fields are kept as extras",
			fields: map[string]string{"mood": "happy"},
			expected: models.Post{
				Title:  "No title",
				Author: "No author",
				Date:   now,
				Body:   "NA",
				Extra:  map[string]string{"mood": "happy"},
			},
		},
		{
			name:   "date can be given",
			fields: map[string]string{"date": "2020-01-02T03:04:05Z"},
			expected: models.Post{
				Title:  "No title",
				Author: "No author",
				Date:   time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC),
				Body:   "NA",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post := models.NewPost(tt.fields, now)
			assert.NotEmpty(t, post.Id)

			tt.expected.Id = post.Id
			assert.Equal(t, tt.expected, post)
		})
	}
}

func TestNewPostIgnoresId(t *testing.T) {
	post := models.NewPost(map[string]string{"id": "mine"}, time.Now())
	assert.NotEqual(t, "mine", post.Id)
	assert.Empty(t, post.Extra)
}

func TestNewPostDateIsPerPost(t *testing.T) {
	first := models.NewPost(nil, time.Unix(100, 0))
	second := models.NewPost(nil, time.Unix(200, 0))

	assert.NotEqual(t, first.Date, second.Date)
	assert.NotEqual(t, first.Id, second.Id)
}

func TestPostJSON(t *testing.T) {
	post := models.NewPost(map[string]string{"title": "Hi", "mood": "happy"}, time.Date(2024, 5, 17, 12, 30, 0, 5, time.UTC))

	data, err := json.Marshal(post)
	require.NoError(t, err)

	var record map[string]string
	require.NoError(t, json.Unmarshal(data, &record))
	assert.Equal(t, "Hi", record["title"])
	assert.Equal(t, "happy", record["mood"])
	assert.Equal(t, "2024-05-17T12:30:00.000000005Z", record["date"])

	var decoded models.Post
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, post.Id, decoded.Id)
	assert.True(t, post.Date.Equal(decoded.Date))
	assert.Equal(t, post.Extra, decoded.Extra)
}

func TestPostUnmarshalInvalidDate(t *testing.T) {
	var post models.Post
	err := json.Unmarshal([]byte(`{"id":"1","date":"yesterday"}`), &post)
	assert.Error(t, err)
}
