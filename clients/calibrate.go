package clients

import (
	"context"
	"encoding/json"
)

// --- Calibration (/calibrate) ---
type CalibrationResult struct {
	PitchMean *float64 `json:"calib_pitch_mean,omitempty"`
	PitchStd  *float64 `json:"calib_pitch_std,omitempty"`
}

func CalibrationForm(audio []byte) Form {
	return Form{FileField: "audio", FileName: "calibration.wav", ContentType: "audio/wav", File: audio}
}

func DecodeCalibration(url string, body []byte) (*CalibrationResult, error) {
	var out CalibrationResult
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, transportErr(url, "calibrate decode: %w", err)
	}
	return &out, nil
}

func (h *HTTP) Calibrate(ctx context.Context, url string, audio []byte) (*CalibrationResult, error) {
	body, err := h.Upload(ctx, url, CalibrationForm(audio))
	if err != nil {
		return nil, err
	}
	out, err := DecodeCalibration(url, body)
	if err != nil {
		return nil, err
	}
	if out.PitchMean != nil && out.PitchStd != nil {
		h.log.WithField("pitch_mean", *out.PitchMean).WithField("pitch_std", *out.PitchStd).Info("calibration applied")
	}
	return out, nil
}
