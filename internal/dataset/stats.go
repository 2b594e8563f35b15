package dataset

import "gonum.org/v1/gonum/stat"

// SuccessStats summarizes the numeric columns of a success dataset. The
// summary goes into the training metadata so a run can be sanity-checked
// without reopening the parquet file.
func SuccessStats(rows []SuccessRow) map[string]float64 {
	targets := make([]float64, len(rows))
	participants := make([]float64, len(rows))
	days := make([]float64, len(rows))
	prices := make([]float64, len(rows))
	positives := 0.0
	for i, r := range rows {
		targets[i] = r.TargetAmount
		participants[i] = float64(r.ParticipantCount)
		days[i] = float64(r.DaysActive)
		prices[i] = r.PricePerUnit
		positives += float64(r.Successful)
	}

	stats := columnStats(map[string][]float64{
		"target_amount":     targets,
		"participant_count": participants,
		"days_active":       days,
		"price_per_unit":    prices,
	})
	if len(rows) > 0 {
		stats["successful_share"] = positives / float64(len(rows))
	}
	return stats
}

// DemandStats summarizes the numeric columns of a demand dataset.
func DemandStats(rows []DemandRow) map[string]float64 {
	targets := make([]float64, len(rows))
	participants := make([]float64, len(rows))
	prices := make([]float64, len(rows))
	for i, r := range rows {
		targets[i] = r.TargetAmount
		participants[i] = float64(r.ParticipantCount)
		prices[i] = r.PricePerUnit
	}

	return columnStats(map[string][]float64{
		"target_amount":     targets,
		"participant_count": participants,
		"price_per_unit":    prices,
	})
}

func columnStats(columns map[string][]float64) map[string]float64 {
	out := make(map[string]float64, len(columns)*2)
	for name, values := range columns {
		if len(values) == 0 {
			continue
		}
		mean, std := stat.MeanStdDev(values, nil)
		out[name+"_mean"] = mean
		if len(values) > 1 {
			out[name+"_stddev"] = std
		}
	}
	return out
}
