package ingest

import (
	"strconv"
	"strings"

	"github.com/chimaridata/joinery/internal/config"
	"github.com/chimaridata/joinery/internal/dataset"
	"github.com/chimaridata/joinery/internal/parallel"
)

const (
	trueStr  = "true"
	falseStr = "false"
)

// columnProfile is the inference result for one column: the narrowest
// type every present value fits, whether any value was absent, and a
// few raw samples for the schema.
type columnProfile struct {
	fieldType dataset.FieldType
	nullable  bool
	samples   []string
}

// profileColumns infers a profile for every column. Wide inputs fan
// the columns out over the worker pool; the inference_threshold knob
// sets where that starts.
func profileColumns(columns [][]string) []columnProfile {
	cfg := config.GetGlobalConfig()

	if len(columns) >= cfg.InferenceThreshold {
		pool := parallel.NewWorkerPool(cfg.WorkerPoolSize)
		defer pool.Close()
		return parallel.ProcessIndexed(pool, columns, func(_ int, values []string) columnProfile {
			return profileColumn(values, cfg.SampleValues)
		})
	}

	profiles := make([]columnProfile, len(columns))
	for i, values := range columns {
		profiles[i] = profileColumn(values, cfg.SampleValues)
	}
	return profiles
}

// profileColumn classifies one column of raw strings. Empty strings
// count as nulls and do not participate in classification; a column of
// nothing but empties stays text.
func profileColumn(values []string, sampleLimit int) columnProfile {
	canBeNumber := true
	canBeBool := true
	canBeDate := true
	hasValue := false

	profile := columnProfile{fieldType: dataset.TypeText}

	for _, value := range values {
		if value == "" {
			profile.nullable = true
			continue
		}
		hasValue = true
		if len(profile.samples) < sampleLimit {
			profile.samples = append(profile.samples, value)
		}

		if canBeBool {
			lower := strings.ToLower(value)
			if lower != trueStr && lower != falseStr {
				canBeBool = false
			}
		}
		if canBeNumber {
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				canBeNumber = false
			}
		}
		if canBeDate && !parseableDate(value) {
			canBeDate = false
		}
	}

	if !hasValue {
		return profile
	}

	switch {
	case canBeBool:
		profile.fieldType = dataset.TypeBool
	case canBeNumber:
		profile.fieldType = dataset.TypeNumber
	case canBeDate:
		profile.fieldType = dataset.TypeDate
	}
	return profile
}

func parseableDate(s string) bool {
	return dataset.CoerceToType(dataset.Text(s), dataset.TypeDate).Kind() == dataset.KindDate
}

// cellValue converts one raw string into a typed cell according to the
// column's inferred type. Empty strings are null cells.
func cellValue(raw string, ft dataset.FieldType) dataset.Value {
	if raw == "" {
		return dataset.Null
	}
	switch ft {
	case dataset.TypeBool:
		return dataset.Bool(strings.EqualFold(raw, trueStr))
	case dataset.TypeNumber:
		f, _ := strconv.ParseFloat(raw, 64)
		return dataset.Number(f)
	case dataset.TypeDate:
		return dataset.CoerceToType(dataset.Text(raw), dataset.TypeDate)
	default:
		return dataset.Text(raw)
	}
}
