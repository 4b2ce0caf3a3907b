package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querypilot/querypilot/model"
)

func TestParseLogsTool_JSONLines(t *testing.T) {
	parse := NewParseLogsTool()

	result := parse.Call(context.Background(), map[string]any{
		"log_data": `{"level": "error", "msg": "boom"}` + "\n" + `{"level": "info", "msg": "ok"}`,
	})

	require.True(t, result.OK)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Payload), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "error", entries[0]["level"])
}

func TestParseLogsTool_Logfmt(t *testing.T) {
	parse := NewParseLogsTool()

	result := parse.Call(context.Background(), map[string]any{
		"log_data": `level=warn msg="disk" free=12`,
	})

	require.True(t, result.OK)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Payload), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "warn", entries[0]["level"])
	assert.Equal(t, "12", entries[0]["free"])
}

func TestParseLogsTool_PlainTextAndEmpty(t *testing.T) {
	parse := NewParseLogsTool()

	result := parse.Call(context.Background(), map[string]any{"log_data": "something broke\nanother line"})
	require.True(t, result.OK)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Payload), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "something broke", entries[0]["message"])

	result = parse.Call(context.Background(), map[string]any{"log_data": "   "})
	require.True(t, result.OK)
	assert.Equal(t, "[]", result.Payload)
}

func TestDetectPatternsTool(t *testing.T) {
	m := model.NewMock("mock").Script(`{"summary": {"total_log_entries": 2, "analysis_type": "errors"}}`)
	detect := NewDetectPatternsTool(m)

	result := detect.Call(context.Background(), map[string]any{
		"log_data": `[{"level": "error"}]`,
	})

	require.True(t, result.OK)
	assert.Contains(t, result.Payload, "total_log_entries")
	assert.Contains(t, m.Prompts()[0].Prompt, "errors analysis", "default pattern_type rendered")
}

func TestBucketValuesTool_Numeric(t *testing.T) {
	bucket := NewBucketValuesTool()

	result := bucket.Call(context.Background(), map[string]any{
		"values":  []any{0.0, 1.0, 2.0, 3.0, 4.0, 5.0, 6.0, 7.0, 8.0, 9.0},
		"buckets": 2,
	})

	require.True(t, result.OK)
	var out struct{ Buckets []Bucket }
	require.NoError(t, json.Unmarshal([]byte(result.Payload), &out))
	require.Len(t, out.Buckets, 2)
	assert.Equal(t, 5, out.Buckets[0].Count)
	assert.Equal(t, 5, out.Buckets[1].Count)
	assert.Equal(t, 0.0, out.Buckets[0].Low)
	assert.Equal(t, 9.0, out.Buckets[1].High)
}

func TestBucketValuesTool_SingleValueAndCategorical(t *testing.T) {
	bucket := NewBucketValuesTool()

	result := bucket.Call(context.Background(), map[string]any{"values": []any{3.0, 3.0, 3.0}})
	require.True(t, result.OK)
	var out struct{ Buckets []Bucket }
	require.NoError(t, json.Unmarshal([]byte(result.Payload), &out))
	require.Len(t, out.Buckets, 1)
	assert.Equal(t, 3, out.Buckets[0].Count)

	result = bucket.Call(context.Background(), map[string]any{"values": []any{"a", "b", "a", "a"}})
	require.True(t, result.OK)
	require.NoError(t, json.Unmarshal([]byte(result.Payload), &out))
	require.Len(t, out.Buckets, 2)
	assert.Equal(t, "a", out.Buckets[0].Label)
	assert.Equal(t, 3, out.Buckets[0].Count)
}

func TestBucketValuesTool_Quantile(t *testing.T) {
	bucket := NewBucketValuesTool()

	result := bucket.Call(context.Background(), map[string]any{
		"values":   []any{9.0, 1.0, 5.0, 3.0, 7.0, 2.0, 8.0, 4.0},
		"buckets":  4,
		"strategy": "quantile",
	})

	require.True(t, result.OK, result.Message)
	var out struct{ Buckets []Bucket }
	require.NoError(t, json.Unmarshal([]byte(result.Payload), &out))
	require.Len(t, out.Buckets, 4)
	for _, b := range out.Buckets {
		assert.Equal(t, 2, b.Count)
	}
	assert.Equal(t, 1.0, out.Buckets[0].Low)
	assert.Equal(t, 9.0, out.Buckets[3].High)
}

func TestBucketValuesTool_Threshold(t *testing.T) {
	bucket := NewBucketValuesTool()

	result := bucket.Call(context.Background(), map[string]any{
		"values":     []any{45.0, 5003.0, 5001.0, 2310.0, 5008.0, 38.0},
		"strategy":   "threshold",
		"thresholds": []any{1000.0, 5000.0},
	})

	require.True(t, result.OK, result.Message)
	var out struct{ Buckets []Bucket }
	require.NoError(t, json.Unmarshal([]byte(result.Payload), &out))
	require.Len(t, out.Buckets, 3)
	assert.Equal(t, "< 1000", out.Buckets[0].Label)
	assert.Equal(t, 2, out.Buckets[0].Count)
	assert.Equal(t, 1, out.Buckets[1].Count)
	assert.Equal(t, 3, out.Buckets[2].Count)
}

func TestBucketValuesTool_Invalid(t *testing.T) {
	bucket := NewBucketValuesTool()

	result := bucket.Call(context.Background(), map[string]any{"values": []any{}})
	assert.False(t, result.OK)

	result = bucket.Call(context.Background(), map[string]any{"values": []any{1.0}, "buckets": 0})
	assert.False(t, result.OK)

	result = bucket.Call(context.Background(), map[string]any{"values": []any{1.0}, "strategy": "zigzag"})
	assert.False(t, result.OK)

	result = bucket.Call(context.Background(), map[string]any{"values": []any{1.0}, "strategy": "threshold"})
	assert.False(t, result.OK)

	result = bucket.Call(context.Background(), map[string]any{
		"values": []any{1.0}, "strategy": "threshold", "thresholds": []any{5.0, 2.0},
	})
	assert.False(t, result.OK)
}

func TestExtractFieldsTool(t *testing.T) {
	m := model.NewMock("mock").Script(`{"numeric_fields": [{"name": "amount", "value": 42}]}`)
	extract := NewExtractFieldsTool(m)

	result := extract.Call(context.Background(), map[string]any{
		"message": "payment of 42 USD received",
		"domain":  "financial",
	})

	require.True(t, result.OK)
	assert.Contains(t, result.Payload, "amount")
	prompt := m.Prompts()[0].Prompt
	assert.Contains(t, prompt, "financial")
	assert.Contains(t, prompt, "payment of 42 USD received")
}
