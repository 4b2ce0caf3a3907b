package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/querypilot/querypilot/model"
	"github.com/querypilot/querypilot/tool"
)

// extractionPrompt asks the model for categorized fields found in a message.
const extractionPrompt = `You are an expert data extraction specialist. Extract the interesting fields
from the message below, focusing on these field types: %s. Domain context: %s.
Respond with a single JSON object and nothing else:

{"numeric_fields": [{"name": "<name>", "value": <number>, "context": "<text>"}],
 "temporal_fields": [{"name": "<name>", "value": "<value>", "context": "<text>"}],
 "categorical_fields": [{"name": "<name>", "value": "<value>", "context": "<text>"}],
 "identifiers": [{"name": "<name>", "value": "<value>", "context": "<text>"}]}

Message:
%s`

// NewExtractFieldsTool builds the extract_fields tool: model-backed
// extraction of numeric, temporal, categorical and identifier fields from
// free text. The fields argument names the targeted columns, so the
// security gate can refuse extraction of sensitive ones.
func NewExtractFieldsTool(reasoner model.Model, opts ...tool.FunctionToolOption) *tool.FunctionTool {
	return tool.NewFunctionTool(
		"extract_fields",
		"Extract numeric, temporal, categorical and identifier fields from text",
		tool.Schema{
			"message":     {Type: "string", Required: true, Description: "Message or log text to extract fields from"},
			"field_types": {Type: "string", Default: "numeric,categorical,temporal,identifiers", Description: "Comma-separated field types to extract"},
			"fields":      {Type: "array", Description: "Specific field names to target"},
			"domain":      {Type: "string", Default: "general", Description: "Domain context guiding extraction"},
		},
		func(ctx context.Context, args map[string]any) (string, error) {
			message, _ := args["message"].(string)
			fieldTypes, _ := args["field_types"].(string)
			domain, _ := args["domain"].(string)

			resp, err := reasoner.Complete(ctx, model.Request{
				Prompt: fmt.Sprintf(extractionPrompt, fieldTypes, domain, message),
			})
			if err != nil {
				return "", tool.NewToolError("extract_fields", err.Error(), tool.CodeUnavailable)
			}
			return resp.Text, nil
		},
		opts...,
	)
}

// NewBucketValuesTool builds the bucket_values tool. Numeric inputs are
// bucketed by the chosen strategy (equal_width, quantile, or threshold with
// explicit cut points); non-numeric inputs get a frequency table. Fully
// deterministic, no model involved.
func NewBucketValuesTool(opts ...tool.FunctionToolOption) *tool.FunctionTool {
	return tool.NewFunctionTool(
		"bucket_values",
		"Bucket a list of values: histograms for numbers, frequency counts for categories",
		tool.Schema{
			"values":     {Type: "array", Required: true, Description: "Values to bucket"},
			"buckets":    {Type: "integer", Default: 5, Description: "Number of buckets for numeric values"},
			"strategy":   {Type: "string", Default: "equal_width", Description: "Numeric bucketing strategy: equal_width, quantile or threshold"},
			"thresholds": {Type: "array", Description: "Ascending cut points, required for the threshold strategy"},
		},
		func(_ context.Context, args map[string]any) (string, error) {
			values, _ := args["values"].([]any)
			if len(values) == 0 {
				return "", tool.NewToolError("bucket_values", "values must not be empty", tool.CodeValidation)
			}
			bucketCount := intArg(args["buckets"], 5)
			if bucketCount < 1 {
				return "", tool.NewToolError("bucket_values", "buckets must be positive", tool.CodeValidation)
			}

			numbers, numeric := asNumbers(values)
			if !numeric {
				return marshalBuckets(categoricalBuckets(values))
			}

			strategy, _ := args["strategy"].(string)
			switch strategy {
			case "", "equal_width":
				return marshalBuckets(numericBuckets(numbers, bucketCount))
			case "quantile":
				return marshalBuckets(quantileBuckets(numbers, bucketCount))
			case "threshold":
				cuts, ok := asNumbers(toAnySlice(args["thresholds"]))
				if !ok || len(cuts) == 0 {
					return "", tool.NewToolError("bucket_values", "threshold strategy requires a numeric thresholds argument", tool.CodeValidation)
				}
				if !sort.Float64sAreSorted(cuts) {
					return "", tool.NewToolError("bucket_values", "thresholds must be in ascending order", tool.CodeValidation)
				}
				return marshalBuckets(thresholdBuckets(numbers, cuts))
			default:
				return "", tool.NewToolError("bucket_values",
					fmt.Sprintf("unknown strategy %q, want equal_width, quantile or threshold", strategy), tool.CodeValidation)
			}
		},
		opts...,
	)
}

// Bucket is one histogram segment of bucket_values output.
type Bucket struct {
	Label string  `json:"label"`
	Low   float64 `json:"low,omitempty"`
	High  float64 `json:"high,omitempty"`
	Count int     `json:"count"`
}

func marshalBuckets(buckets []Bucket) (string, error) {
	payload, err := json.Marshal(map[string]any{"buckets": buckets})
	if err != nil {
		return "", tool.NewToolError("bucket_values", err.Error(), tool.CodeExecution)
	}
	return string(payload), nil
}

func asNumbers(values []any) ([]float64, bool) {
	numbers := make([]float64, 0, len(values))
	for _, v := range values {
		switch n := v.(type) {
		case float64:
			numbers = append(numbers, n)
		case int:
			numbers = append(numbers, float64(n))
		case int64:
			numbers = append(numbers, float64(n))
		default:
			return nil, false
		}
	}
	return numbers, true
}

func numericBuckets(numbers []float64, count int) []Bucket {
	low, high := numbers[0], numbers[0]
	for _, n := range numbers[1:] {
		low = math.Min(low, n)
		high = math.Max(high, n)
	}

	if low == high {
		return []Bucket{{Label: fmt.Sprintf("[%g, %g]", low, high), Low: low, High: high, Count: len(numbers)}}
	}

	width := (high - low) / float64(count)
	buckets := make([]Bucket, count)
	for i := range buckets {
		bLow := low + float64(i)*width
		bHigh := bLow + width
		buckets[i] = Bucket{Label: fmt.Sprintf("[%g, %g)", bLow, bHigh), Low: bLow, High: bHigh}
	}
	buckets[count-1].Label = fmt.Sprintf("[%g, %g]", buckets[count-1].Low, high)
	buckets[count-1].High = high

	for _, n := range numbers {
		i := int((n - low) / width)
		if i >= count {
			i = count - 1
		}
		buckets[i].Count++
	}
	return buckets
}

// quantileBuckets splits the sorted values into count groups of near-equal
// population. Fewer distinct values than buckets collapses adjacent groups.
func quantileBuckets(numbers []float64, count int) []Bucket {
	sorted := append([]float64(nil), numbers...)
	sort.Float64s(sorted)

	if count > len(sorted) {
		count = len(sorted)
	}

	var buckets []Bucket
	per := len(sorted) / count
	rem := len(sorted) % count
	start := 0
	for i := 0; i < count && start < len(sorted); i++ {
		size := per
		if i < rem {
			size++
		}
		end := start + size
		low, high := sorted[start], sorted[end-1]
		if len(buckets) > 0 && buckets[len(buckets)-1].High == high {
			buckets[len(buckets)-1].Count += size
		} else {
			buckets = append(buckets, Bucket{
				Label: fmt.Sprintf("[%g, %g]", low, high),
				Low:   low,
				High:  high,
				Count: size,
			})
		}
		start = end
	}
	return buckets
}

// thresholdBuckets assigns values to the intervals the ascending cut points
// define: (-inf, c1), [c1, c2), ..., [cn, +inf).
func thresholdBuckets(numbers []float64, cuts []float64) []Bucket {
	buckets := make([]Bucket, len(cuts)+1)
	buckets[0] = Bucket{Label: fmt.Sprintf("< %g", cuts[0]), High: cuts[0]}
	for i := 1; i < len(cuts); i++ {
		buckets[i] = Bucket{Label: fmt.Sprintf("[%g, %g)", cuts[i-1], cuts[i]), Low: cuts[i-1], High: cuts[i]}
	}
	buckets[len(cuts)] = Bucket{Label: fmt.Sprintf(">= %g", cuts[len(cuts)-1]), Low: cuts[len(cuts)-1]}

	for _, n := range numbers {
		i := sort.SearchFloat64s(cuts, n)
		if i < len(cuts) && cuts[i] == n {
			i++
		}
		buckets[i].Count++
	}
	return buckets
}

func toAnySlice(v any) []any {
	switch s := v.(type) {
	case []any:
		return s
	case []float64:
		out := make([]any, len(s))
		for i, n := range s {
			out[i] = n
		}
		return out
	}
	return nil
}

func categoricalBuckets(values []any) []Bucket {
	counts := map[string]int{}
	for _, v := range values {
		counts[fmt.Sprintf("%v", v)]++
	}
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if counts[labels[i]] != counts[labels[j]] {
			return counts[labels[i]] > counts[labels[j]]
		}
		return labels[i] < labels[j]
	})

	buckets := make([]Bucket, len(labels))
	for i, label := range labels {
		buckets[i] = Bucket{Label: label, Count: counts[label]}
	}
	return buckets
}
