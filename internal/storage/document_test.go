package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDocument_Layout(t *testing.T) {
	done := testNow.Add(30 * time.Minute)
	doc := &Document{Categories: []Category{
		{Name: "Work", Tasks: []Task{
			{Text: "Buy <milk> & café", Completed: true, CreatedAt: testNow, CompletedAt: &done},
			{Text: "open", CreatedAt: testNow},
		}},
		{Name: "个人", Tasks: nil},
	}}

	var buf bytes.Buffer
	require.NoError(t, EncodeDocument(&buf, doc))

	want := `{
  "Work": [
    {
      "text": "Buy <milk> & café",
      "completed": true,
      "created_date": "2025-03-14 09:30",
      "completed_date": "2025-03-14 10:00"
    },
    {
      "text": "open",
      "completed": false,
      "created_date": "2025-03-14 09:30",
      "completed_date": null
    }
  ],
  "个人": []
}`
	assert.Equal(t, want, buf.String())
}

func TestEncodeDocument_DropsCompletedDateOnOpenTask(t *testing.T) {
	stale := testNow
	doc := &Document{Categories: []Category{
		{Name: "Work", Tasks: []Task{{Text: "x", CreatedAt: testNow, CompletedAt: &stale}}},
	}}

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"completed_date":null`)
}

func TestDecodeDocument_PreservesOrder(t *testing.T) {
	input := `{"Zeta": [], "Alpha": [], "Mid": []}`

	doc, err := DecodeDocument(strings.NewReader(input), testNow)
	require.NoError(t, err)

	names := make([]string, len(doc.Categories))
	for i, c := range doc.Categories {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"Zeta", "Alpha", "Mid"}, names)
}

func TestDecodeDocument_LegacyBackfill(t *testing.T) {
	input := `{
		"Work": [
			{"text": "no dates", "completed": false},
			{"text": "legacy date", "completed": false, "date": "2024-01-02 08:15"},
			{"text": "done without completion", "completed": true, "created_date": "2024-05-06 07:00"},
			{"text": "open with stale completion", "completed": false, "created_date": "2024-05-06 07:00", "completed_date": "2024-05-07 07:00"},
			{"text": "seconds layout", "completed": true, "created_date": "2024-05-06 07:00:59", "completed_date": "2024-05-08 09:10"}
		]
	}`

	doc, err := DecodeDocument(strings.NewReader(input), testNow.Add(17*time.Second))
	require.NoError(t, err)
	require.Len(t, doc.Categories, 1)
	tasks := doc.Categories[0].Tasks
	require.Len(t, tasks, 5)

	assert.Equal(t, "2025-03-14 09:30", FormatDate(tasks[0].CreatedAt))
	assert.Nil(t, tasks[0].CompletedAt)

	assert.Equal(t, "2024-01-02 08:15", FormatDate(tasks[1].CreatedAt))

	require.NotNil(t, tasks[2].CompletedAt)
	assert.Equal(t, "2024-05-06 07:00", FormatDate(*tasks[2].CompletedAt))

	assert.Nil(t, tasks[3].CompletedAt)

	assert.Equal(t, "2024-05-06 07:00", FormatDate(tasks[4].CreatedAt))
	require.NotNil(t, tasks[4].CompletedAt)
	assert.Equal(t, "2024-05-08 09:10", FormatDate(*tasks[4].CompletedAt))

	for _, task := range tasks {
		assert.NotEmpty(t, task.ID)
	}
}

func TestDecodeDocument_DuplicateAndEmptyKeys(t *testing.T) {
	input := `{"A": [{"text": "first"}], "": [{"text": "skipped"}], "B": [], "A": [{"text": "second"}]}`

	doc, err := DecodeDocument(strings.NewReader(input), testNow)
	require.NoError(t, err)
	require.Len(t, doc.Categories, 2)
	assert.Equal(t, "A", doc.Categories[0].Name)
	assert.Equal(t, "B", doc.Categories[1].Name)
	require.Len(t, doc.Categories[0].Tasks, 1)
	assert.Equal(t, "second", doc.Categories[0].Tasks[0].Text)
}

func TestDecodeDocument_DropsTasksWithoutText(t *testing.T) {
	input := `{"Work": [{"text": "  "}, {"completed": true}, {"text": null}, {"text": "  keep me "}], "Study": [{"text": ""}]}`

	doc, err := DecodeDocument(strings.NewReader(input), testNow)
	require.NoError(t, err)
	require.Len(t, doc.Categories, 2)
	require.Len(t, doc.Categories[0].Tasks, 1)
	assert.Equal(t, "keep me", doc.Categories[0].Tasks[0].Text)
	assert.Empty(t, doc.Categories[1].Tasks)

	s, _ := newTestStore(t)
	require.NoError(t, s.Replace(context.Background(), doc))
	assert.Equal(t, []string{"keep me"}, taskTexts(t, s, "Work"))
}

func TestDecodeDocument_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "not an object", input: `[1, 2]`},
		{name: "truncated", input: `{"Work": [`},
		{name: "wrong task shape", input: `{"Work": "nope"}`},
		{name: "bad completed flag", input: `{"Work": [{"text": "x", "completed": "yes"}]}`},
		{name: "empty", input: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeDocument(strings.NewReader(tt.input), testNow)
			assert.Error(t, err)
		})
	}
}

func TestDocument_JSONRoundTrip(t *testing.T) {
	done := testNow.Add(2 * time.Hour)
	doc := &Document{Categories: []Category{
		{Name: "Work", Tasks: []Task{
			{Text: "a", CreatedAt: testNow},
			{Text: "b", Completed: true, CreatedAt: testNow, CompletedAt: &done},
		}},
		{Name: "Other", Tasks: []Task{}},
	}}

	var buf bytes.Buffer
	require.NoError(t, EncodeDocument(&buf, doc))

	var decoded Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	var again bytes.Buffer
	require.NoError(t, EncodeDocument(&again, &decoded))
	assert.Equal(t, buf.String(), again.String())
}

func TestParseDate_RejectsGarbage(t *testing.T) {
	_, err := ParseDate("yesterday")
	assert.Error(t, err)
}

func FuzzDecodeDocument(f *testing.F) {
	f.Add(`{}`)
	f.Add(`{"Work": [{"text": "a", "completed": true}]}`)
	f.Add(`{"Work": [{"text": "a", "date": "2024-01-01"}], "Work": []}`)
	f.Add(`{"": [{}]}`)
	f.Add(`[`)

	f.Fuzz(func(t *testing.T, input string) {
		doc, err := DecodeDocument(strings.NewReader(input), testNow)
		if err != nil {
			return
		}

		// Anything that decodes must encode and decode back to the same shape.
		var buf bytes.Buffer
		if err := EncodeDocument(&buf, doc); err != nil {
			t.Fatalf("EncodeDocument() error = %v", err)
		}
		again, err := DecodeDocument(&buf, testNow)
		if err != nil {
			t.Fatalf("re-decode error = %v\n%s", err, buf.String())
		}
		if len(again.Categories) != len(doc.Categories) {
			t.Fatalf("categories = %d, want %d", len(again.Categories), len(doc.Categories))
		}
		for i := range doc.Categories {
			if again.Categories[i].Name != doc.Categories[i].Name {
				t.Errorf("category %d = %q, want %q", i, again.Categories[i].Name, doc.Categories[i].Name)
			}
			for _, task := range doc.Categories[i].Tasks {
				if !task.Completed && task.CompletedAt != nil {
					t.Errorf("open task %q has a completion date", task.Text)
				}
			}
		}
	})
}
