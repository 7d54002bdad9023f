// Package metrics scores a sketch's epoch estimates against the Ideal
// reference: frequency-estimation error (AAE/ARE/WMRE) and heavy-hitter
// classification (confusion matrix and its derived rates).
package metrics

import (
	"encoding/json"
	"math"

	"sketchbench/internal/sketch"
)

// ErrorMetric holds the frequency-estimation error figures from spec.md §7.
type ErrorMetric struct {
	AAE  float64 // Average Absolute Error
	ARE  float64 // Average Relative Error
	WMRE float64 // Weighted Mean Relative Error
}

// HeavyHitterMetric holds the confusion matrix for the "is this flow a
// heavy hitter" classification at a given threshold, plus its derived
// rates.
type HeavyHitterMetric struct {
	TP, TN, FP, FN uint32
	Threshold      uint64
}

func (m HeavyHitterMetric) Precision() float64 {
	total := float64(m.TP + m.FP)
	if total == 0 {
		return 0
	}
	return float64(m.TP) / total
}

func (m HeavyHitterMetric) Recall() float64 {
	total := float64(m.TP + m.FN)
	if total == 0 {
		return 0
	}
	return float64(m.TP) / total
}

func (m HeavyHitterMetric) F1Score() float64 {
	p, r := m.Precision(), m.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

func (m HeavyHitterMetric) Accuracy() float64 {
	total := float64(m.TP + m.TN + m.FP + m.FN)
	if total == 0 {
		return 0
	}
	return float64(m.TP+m.TN) / total
}

// TPR is an alias for Recall (spec.md §7 names both).
func (m HeavyHitterMetric) TPR() float64 { return m.Recall() }

func (m HeavyHitterMetric) FPR() float64 {
	total := float64(m.TN + m.FP)
	if total == 0 {
		return 0
	}
	return float64(m.FP) / total
}

// Result bundles both metric families for one sketch over one epoch.
//
// When a Result comes out of Average, the HeavyHit rate methods
// (Precision/Recall/F1Score/Accuracy) ignore the (also-averaged, largely
// diagnostic) TP/TN/FP/FN counts and return the epoch-averaged rates
// instead, matching the reference tool's summary table, which averages
// each epoch's already-computed precision/recall and only then
// recomputes F1 from those averages.
type Result struct {
	SketchName string
	Error      ErrorMetric
	HeavyHit   HeavyHitterMetric

	isAveraged                                   bool
	avgPrecision, avgRecall, avgF1, avgAccuracy float64
}

// Precision returns the averaged precision when r came from Average, else
// HeavyHit.Precision().
func (r Result) Precision() float64 {
	if r.isAveraged {
		return r.avgPrecision
	}
	return r.HeavyHit.Precision()
}

// Recall returns the averaged recall when r came from Average, else
// HeavyHit.Recall().
func (r Result) Recall() float64 {
	if r.isAveraged {
		return r.avgRecall
	}
	return r.HeavyHit.Recall()
}

// F1Score returns F1 recomputed from the averaged precision/recall when r
// came from Average, else HeavyHit.F1Score().
func (r Result) F1Score() float64 {
	if r.isAveraged {
		return r.avgF1
	}
	return r.HeavyHit.F1Score()
}

// Accuracy returns the averaged accuracy when r came from Average, else
// HeavyHit.Accuracy().
func (r Result) Accuracy() float64 {
	if r.isAveraged {
		return r.avgAccuracy
	}
	return r.HeavyHit.Accuracy()
}

// Threshold computes the heavy-hitter classification threshold from an
// epoch's total packet count and a percentage (spec.md §6): at least 1
// whenever any packets were observed.
func Threshold(totalPackets uint64, percentage float64) uint64 {
	t := uint64(float64(totalPackets) * percentage / 100.0)
	if t == 0 && totalPackets > 0 {
		t = 1
	}
	return t
}

// Evaluate scores a sketch's current state against the Ideal reference's
// current state, at the given heavy-hitter threshold. It does not mutate
// either.
func Evaluate(name string, ideal *sketch.Ideal, s sketch.Sketch, threshold uint64) Result {
	res := Result{SketchName: name, HeavyHit: HeavyHitterMetric{Threshold: threshold}}

	keys := ideal.Keys()
	if len(keys) == 0 {
		return res
	}

	var totalPackets uint64
	var sumAbsoluteError, sumRelativeError, sumWeightedRelativeError float64
	totalFlows := 0

	for _, flow := range keys {
		trueCount := ideal.Query(flow)
		estimated := s.Query(flow)

		absoluteError := math.Abs(float64(trueCount) - float64(estimated))
		sumAbsoluteError += absoluteError

		if trueCount > 0 {
			relativeError := absoluteError / float64(trueCount)
			sumRelativeError += relativeError
			sumWeightedRelativeError += relativeError * float64(trueCount)
		}

		totalFlows++
		totalPackets += trueCount

		isHeavyIdeal := trueCount >= threshold
		isHeavyEstimated := estimated >= threshold

		switch {
		case isHeavyIdeal && isHeavyEstimated:
			res.HeavyHit.TP++
		case !isHeavyIdeal && !isHeavyEstimated:
			res.HeavyHit.TN++
		case !isHeavyIdeal && isHeavyEstimated:
			res.HeavyHit.FP++
		default:
			res.HeavyHit.FN++
		}
	}

	if totalFlows > 0 {
		res.Error.ARE = sumRelativeError / float64(totalFlows)
		res.Error.AAE = sumAbsoluteError / float64(totalFlows)
	}
	if totalPackets > 0 {
		res.Error.WMRE = sumWeightedRelativeError / float64(totalPackets)
	}

	return res
}

// MarshalJSON serializes Result with its derived rates included as plain
// fields, since Precision/Recall/F1Score/Accuracy are methods (their value
// depends on whether r is a per-epoch or averaged Result) rather than
// struct fields.
func (r Result) MarshalJSON() ([]byte, error) {
	type wire struct {
		SketchName string            `json:"sketch_name"`
		Error      ErrorMetric       `json:"error"`
		HeavyHit   HeavyHitterMetric `json:"heavy_hitter"`
		Precision  float64           `json:"precision"`
		Recall     float64           `json:"recall"`
		F1Score    float64           `json:"f1_score"`
		Accuracy   float64           `json:"accuracy"`
	}
	return json.Marshal(wire{
		SketchName: r.SketchName,
		Error:      r.Error,
		HeavyHit:   r.HeavyHit,
		Precision:  r.Precision(),
		Recall:     r.Recall(),
		F1Score:    r.F1Score(),
		Accuracy:   r.Accuracy(),
	})
}

// Average combines per-epoch results for the same sketch into a single
// mean across every metric field, the way the reference tool's end-of-run
// summary does.
func Average(results []Result) Result {
	if len(results) == 0 {
		return Result{}
	}

	avg := Result{SketchName: results[0].SketchName}
	n := float64(len(results))

	for _, r := range results {
		avg.Error.AAE += r.Error.AAE
		avg.Error.ARE += r.Error.ARE
		avg.Error.WMRE += r.Error.WMRE
		avg.HeavyHit.TP += r.HeavyHit.TP
		avg.HeavyHit.TN += r.HeavyHit.TN
		avg.HeavyHit.FP += r.HeavyHit.FP
		avg.HeavyHit.FN += r.HeavyHit.FN
	}

	avg.Error.AAE /= n
	avg.Error.ARE /= n
	avg.Error.WMRE /= n
	// The confusion-matrix counts are averaged with integer division.
	count := uint32(len(results))
	avg.HeavyHit.TP /= count
	avg.HeavyHit.TN /= count
	avg.HeavyHit.FP /= count
	avg.HeavyHit.FN /= count
	var sumPrecision, sumRecall, sumAccuracy float64
	for _, r := range results {
		sumPrecision += r.HeavyHit.Precision()
		sumRecall += r.HeavyHit.Recall()
		sumAccuracy += r.HeavyHit.Accuracy()
	}
	avg.avgPrecision = sumPrecision / n
	avg.avgRecall = sumRecall / n
	avg.avgAccuracy = sumAccuracy / n
	// F1 is recomputed from the averaged precision/recall, not averaged
	// per-epoch F1, matching the reference summary table.
	if avg.avgPrecision+avg.avgRecall > 0 {
		avg.avgF1 = 2 * avg.avgPrecision * avg.avgRecall / (avg.avgPrecision + avg.avgRecall + 1e-10)
	}
	avg.isAveraged = true

	return avg
}
