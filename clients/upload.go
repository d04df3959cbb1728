package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/sirupsen/logrus"
)

type Field struct{ Name, Value string }

// Form is a multipart body with ordered text fields followed by one file.
type Form struct {
	Fields      []Field
	FileField   string
	FileName    string
	ContentType string
	File        []byte
}

type envelope struct {
	Error string `json:"error"`
}

// Upload posts form to url and returns the raw JSON body. The body is
// decoded whatever the HTTP status, since the server reports failures as
// JSON with a 4xx status.
func (h *HTTP) Upload(ctx context.Context, url string, form Form) (json.RawMessage, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	for _, f := range form.Fields {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, err
		}
	}

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, form.FileField, form.FileName))
	ct := form.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	hdr.Set("Content-Type", ct)
	fw, err := w.CreatePart(hdr)
	if err != nil {
		return nil, err
	}
	if _, err = fw.Write(form.File); err != nil {
		return nil, err
	}
	if err = w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &b)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	log := h.log.WithField("endpoint", url)
	log.WithField("bytes", len(form.File)).Debug("uploading")

	resp, err := h.c.Do(req)
	if err != nil {
		log.WithError(err).Warn("request failed")
		return nil, &TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportErr(url, "read %s: %w", resp.Status, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		log.WithField("status", resp.StatusCode).Warn("response is not JSON")
		return nil, transportErr(url, "decode %s response: %w", resp.Status, err)
	}
	if env.Error != "" {
		log.WithFields(logrus.Fields{"status": resp.StatusCode, "error": env.Error}).Info("server rejected upload")
		return nil, &ServerError{URL: url, Status: resp.StatusCode, Message: env.Error}
	}
	return body, nil
}
