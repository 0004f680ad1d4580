package insight

import (
	"fmt"
	"strconv"
)

const (
	defaultConfidence  = 0.85
	defaultTitle       = "Insight"
	defaultDescription = "Based on your data, this insight was generated to help you make better decisions."
)

// DisplayModel is the flattened, render-ready projection of an insight.
type DisplayModel struct {
	Title         string
	Value         string
	Description   string
	Confidence    float64
	GeneratedDate string
	ModelName     string
}

// ConfidencePct renders the confidence as a whole percentage.
func (m DisplayModel) ConfidencePct() string {
	return strconv.FormatFloat(m.Confidence*100, 'f', 0, 64)
}

// BuildDisplayModel maps a raw insight onto its display model. Every field
// degrades along a fixed fallback chain so a displayable card always exists
// regardless of payload shape.
func BuildDisplayModel(ins Insight) DisplayModel {
	title := ins.ModelName
	if title == "" {
		title = defaultTitle
	}
	return DisplayModel{
		Title:         title,
		Value:         extractMainValue(ins.PredictionOutput),
		Description:   extractDescription(ins.PredictionOutput),
		Confidence:    ins.PredictionOutput.Confidence(),
		GeneratedDate: ins.CreatedAt.Format("1/2/2006"),
		ModelName:     ins.ModelName,
	}
}

// extractMainValue picks the headline value with a fixed key preference.
// The LTV and engagement fields get currency/percentage formatting; unknown
// payloads fall through to the first numeric field and finally the raw dump.
func extractMainValue(output PredictionOutput) string {
	if v, ok := output.Field("forecast"); ok {
		return stringValue(v)
	}
	if v, ok := output.Field("prediction"); ok {
		return stringValue(v)
	}
	if v, ok := output.Field("score"); ok {
		return stringValue(v)
	}
	if v, ok := output.Field("predicted_ltv"); ok {
		return "$" + stringValue(v)
	}
	if v, ok := output.Field("engagement_score"); ok {
		if f, ok := toFloat(v); ok {
			return strconv.FormatFloat(f*100, 'f', 0, 64) + "%"
		}
		return stringValue(v)
	}
	if f, ok := output.FirstNumeric(); ok {
		return formatNumber(f)
	}
	return output.JSON()
}

// extractDescription prefers an explicit next action, then the first
// recommendation, then a fixed generic sentence.
func extractDescription(output PredictionOutput) string {
	if v, ok := output.Field("next_action"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if v, ok := output.Field("recommendations"); ok {
		if list, ok := v.([]any); ok && len(list) > 0 {
			return stringValue(list[0])
		}
	}
	return defaultDescription
}

func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return formatNumber(s)
	case bool:
		return strconv.FormatBool(s)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}
