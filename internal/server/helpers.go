package server

import (
	"encoding/json"
	"image"
	"log/slog"
	"net/http"
	"sort"

	"github.com/cwbudde/motionbench/internal/me"
)

// predictedFrame keeps the latest reconstruction of a job for the image endpoints.
type predictedFrame struct {
	Strategy  string
	Pair      int
	Predicted *me.Frame
	Current   *me.Frame
}

// residualImage maps |current - predicted| to a grayscale image, amplified
// 4x so small errors stay visible.
func residualImage(curr, pred *me.Frame) *image.Gray {
	img := image.NewGray(curr.Bounds())
	for i := range curr.Pix {
		d := int(curr.Pix[i]) - int(pred.Pix[i])
		if d < 0 {
			d = -d
		}
		img.Pix[i] = uint8(min(255, 4*d))
	}
	return img
}

func sortJobs(jobs []*Job) {
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].StartTime.Before(jobs[j].StartTime)
	})
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
