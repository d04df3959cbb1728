package clients

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newClient(t *testing.T) *HTTP {
	t.Helper()
	h, err := NewHTTP(0)
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func TestAnalyzeSendsMultipartForm(t *testing.T) {
	audio := []byte("RIFF....WAVE")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/analyze" {
			t.Errorf("got %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
			return
		}
		if got := r.FormValue("chapter"); got != "ch2" {
			t.Errorf("chapter = %q", got)
		}
		if got := r.FormValue("sentence"); got != "s07" {
			t.Errorf("sentence = %q", got)
		}
		f, fh, err := r.FormFile("audio")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			return
		}
		defer f.Close()
		if fh.Filename != "record.wav" {
			t.Errorf("filename = %q", fh.Filename)
		}
		if ct := fh.Header.Get("Content-Type"); ct != "audio/wav" {
			t.Errorf("part content type = %q", ct)
		}
		got, _ := io.ReadAll(f)
		if string(got) != string(audio) {
			t.Errorf("audio = %q", got)
		}
		io.WriteString(w, `{"score":87,"stress_similarity":0.9,"rhythm_similarity":0.8,"mfcc_similarity":0.85,"overall_similarity":0.85,"t_nat":[0,1,2],"f0_nat":[100,null,120],"f0_lea":[95,105,115]}`)
	}))
	defer srv.Close()

	res, err := newClient(t).Analyze(context.Background(), srv.URL+"/analyze", AnalyzeReq{Chapter: "ch2", Sentence: "s07", Audio: audio})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Score != 87 {
		t.Errorf("score = %v", res.Score)
	}
	want := []float64{0.9, 0.8, 0.85, 0.85}
	for i, v := range res.Similarities() {
		if v != want[i] {
			t.Errorf("similarity[%d] = %v, want %v", i, v, want[i])
		}
	}
	if len(res.F0Nat) != 3 || !math.IsNaN(res.F0Nat[1]) {
		t.Errorf("f0_nat = %v, want NaN for the null frame", res.F0Nat)
	}
}

func TestCalibrateSendsAudioOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Error(err)
			return
		}
		if len(r.MultipartForm.Value) != 0 {
			t.Errorf("unexpected text fields: %v", r.MultipartForm.Value)
		}
		_, fh, err := r.FormFile("audio")
		if err != nil {
			t.Error(err)
			return
		}
		if fh.Filename != "calibration.wav" {
			t.Errorf("filename = %q", fh.Filename)
		}
		io.WriteString(w, `{"calib_pitch_mean":180.5,"calib_pitch_std":22.1}`)
	}))
	defer srv.Close()

	res, err := newClient(t).Calibrate(context.Background(), srv.URL+"/calibrate", []byte("wav"))
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	if res.PitchMean == nil || *res.PitchMean != 180.5 {
		t.Errorf("pitch mean = %v", res.PitchMean)
	}
}

func TestUploadErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantSrv   string
		wantTrans bool
	}{
		{"server error with 400", http.StatusBadRequest, `{"error":"too short"}`, "too short", false},
		{"server error with 200", http.StatusOK, `{"error":"no native audio"}`, "no native audio", false},
		{"html error page", http.StatusInternalServerError, `<html>boom</html>`, "", true},
		{"empty body", http.StatusOK, ``, "", true},
		{"empty error is success", http.StatusOK, `{"error":""}`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := newClient(t).Upload(context.Background(), srv.URL, CalibrationForm([]byte("x")))

			var se *ServerError
			var te *TransportError
			switch {
			case tt.wantSrv != "":
				if !errors.As(err, &se) || se.Message != tt.wantSrv {
					t.Fatalf("err = %v, want ServerError %q", err, tt.wantSrv)
				}
				if se.Status != tt.status {
					t.Errorf("status = %d, want %d", se.Status, tt.status)
				}
			case tt.wantTrans:
				if !errors.As(err, &te) {
					t.Fatalf("err = %v, want TransportError", err)
				}
			default:
				if err != nil {
					t.Fatalf("err = %v, want nil", err)
				}
			}
		})
	}
}

func TestUploadConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newClient(t).Upload(context.Background(), url+"/analyze", AnalyzeForm(AnalyzeReq{}))
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want TransportError", err)
	}
	if !strings.Contains(te.URL, "/analyze") {
		t.Errorf("URL = %q", te.URL)
	}
}

func TestCalibrationCookieCarriesToAnalyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/calibrate":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "calibrated", Path: "/"})
			io.WriteString(w, `{}`)
		case "/analyze":
			c, err := r.Cookie("session")
			if err != nil || c.Value != "calibrated" {
				io.WriteString(w, `{"error":"not calibrated"}`)
				return
			}
			io.WriteString(w, `{"score":50}`)
		}
	}))
	defer srv.Close()

	h := newClient(t)
	ctx := context.Background()
	if _, err := h.Calibrate(ctx, srv.URL+"/calibrate", []byte("c")); err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	res, err := h.Analyze(ctx, srv.URL+"/analyze", AnalyzeReq{Chapter: "c", Sentence: "s", Audio: []byte("a")})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Score != 50 {
		t.Errorf("score = %v", res.Score)
	}
}
