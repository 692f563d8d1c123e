package application

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ericfisherdev/raverify/internal/domain/model"
)

// SubmissionVersion identifies the encoding of a shared submission payload.
// Values are append-only: links already in circulation must keep decoding.
type SubmissionVersion int

const (
	// SubmissionVersionLegacy is base64(JSON), used by links without a "v" parameter.
	SubmissionVersionLegacy SubmissionVersion = 0
	// SubmissionVersionGzip is base64(gzip(JSON)).
	SubmissionVersionGzip SubmissionVersion = 1

	// CurrentSubmissionVersion is written by every export.
	CurrentSubmissionVersion = SubmissionVersionGzip
)

// Query parameter names carrying a shared submission.
const (
	QueryParamData    = "data"
	QueryParamVersion = "v"
)

// maxSubmissionBytes bounds the decompressed payload size.
const maxSubmissionBytes = 1 << 20

// ErrCorruptSubmission is returned when a shared payload cannot be decoded.
// Import never falls back to a partially decoded snapshot.
var ErrCorruptSubmission = errors.New("corrupt submission payload")

// submissionWire is the JSON object inside the payload. Absent fields take
// the import defaults, so every field is optional.
type submissionWire struct {
	Username  *string `json:"username,omitempty"`
	Alt       *string `json:"alt,omitempty"`
	StartDate *string `json:"startDate,omitempty"`
	EndDate   *string `json:"endDate,omitempty"`
	Links     *string `json:"links,omitempty"`
	CheckDate *bool   `json:"checkDate,omitempty"`
}

// ExportSubmission encodes snap with the current version and returns the
// query parameters of a share link.
func ExportSubmission(snap model.SubmissionSnapshot) (url.Values, error) {
	data, err := encodeSubmission(snap, CurrentSubmissionVersion)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set(QueryParamData, data)
	q.Set(QueryParamVersion, strconv.Itoa(int(CurrentSubmissionVersion)))
	return q, nil
}

// ShareURL returns baseURL with the encoded snapshot as its query string.
// Any existing query on baseURL is replaced.
func ShareURL(baseURL string, snap model.SubmissionSnapshot) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing share base URL: %w", err)
	}
	q, err := ExportSubmission(snap)
	if err != nil {
		return "", err
	}
	u.RawQuery = q.Encode()
	u.Fragment = ""
	return u.String(), nil
}

// ImportSubmission decodes a payload of the given version. Fields missing
// from the payload are taken from defaults.
func ImportSubmission(data string, version SubmissionVersion, defaults model.SubmissionSnapshot) (model.SubmissionSnapshot, error) {
	raw, err := decodeBase64(data)
	if err != nil {
		return model.SubmissionSnapshot{}, fmt.Errorf("%w: %w", ErrCorruptSubmission, err)
	}

	switch version {
	case SubmissionVersionLegacy:
	case SubmissionVersionGzip:
		raw, err = gunzip(raw)
		if err != nil {
			return model.SubmissionSnapshot{}, fmt.Errorf("%w: %w", ErrCorruptSubmission, err)
		}
	default:
		return model.SubmissionSnapshot{}, fmt.Errorf("%w: unknown version %d", ErrCorruptSubmission, version)
	}

	return decodeWire(raw, defaults)
}

// ImportSubmissionQuery imports the submission carried by q. It reports false
// when q has no data parameter, in which case defaults are returned unchanged.
// A missing version parameter means a legacy link.
func ImportSubmissionQuery(q url.Values, defaults model.SubmissionSnapshot) (model.SubmissionSnapshot, bool, error) {
	data := q.Get(QueryParamData)
	if data == "" {
		return defaults, false, nil
	}

	version := SubmissionVersionLegacy
	if v := q.Get(QueryParamVersion); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return model.SubmissionSnapshot{}, true, fmt.Errorf("%w: version %q", ErrCorruptSubmission, v)
		}
		version = SubmissionVersion(n)
	}

	snap, err := ImportSubmission(data, version, defaults)
	if err != nil {
		return model.SubmissionSnapshot{}, true, err
	}
	return snap, true, nil
}

func encodeSubmission(snap model.SubmissionSnapshot, version SubmissionVersion) (string, error) {
	raw, err := json.Marshal(toWire(snap))
	if err != nil {
		return "", fmt.Errorf("encoding submission: %w", err)
	}

	switch version {
	case SubmissionVersionLegacy:
	case SubmissionVersionGzip:
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(raw); err != nil {
			return "", fmt.Errorf("compressing submission: %w", err)
		}
		if err := zw.Close(); err != nil {
			return "", fmt.Errorf("compressing submission: %w", err)
		}
		raw = buf.Bytes()
	default:
		return "", fmt.Errorf("encoding submission: unknown version %d", version)
	}

	return base64.StdEncoding.EncodeToString(raw), nil
}

func toWire(snap model.SubmissionSnapshot) submissionWire {
	w := submissionWire{
		Username:  &snap.Username,
		Alt:       &snap.AltUsername,
		Links:     &snap.SubmissionText,
		CheckDate: &snap.CheckDate,
	}
	if !snap.StartDate.IsZero() {
		s := model.FormatDate(snap.StartDate)
		w.StartDate = &s
	}
	if !snap.EndDate.IsZero() {
		s := model.FormatDate(snap.EndDate)
		w.EndDate = &s
	}
	return w
}

func decodeWire(raw []byte, defaults model.SubmissionSnapshot) (model.SubmissionSnapshot, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return model.SubmissionSnapshot{}, fmt.Errorf("%w: payload is not a JSON object", ErrCorruptSubmission)
	}

	var w submissionWire
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return model.SubmissionSnapshot{}, fmt.Errorf("%w: %w", ErrCorruptSubmission, err)
	}

	snap := defaults
	if w.Username != nil {
		snap.Username = *w.Username
	}
	if w.Alt != nil {
		snap.AltUsername = *w.Alt
	}
	if w.Links != nil {
		snap.SubmissionText = *w.Links
	}
	if w.CheckDate != nil {
		snap.CheckDate = *w.CheckDate
	}

	var err error
	if snap.StartDate, err = wireDate(w.StartDate, defaults.StartDate); err != nil {
		return model.SubmissionSnapshot{}, err
	}
	if snap.EndDate, err = wireDate(w.EndDate, defaults.EndDate); err != nil {
		return model.SubmissionSnapshot{}, err
	}
	return snap, nil
}

func wireDate(s *string, fallback time.Time) (time.Time, error) {
	if s == nil || *s == "" {
		return fallback, nil
	}
	t, err := model.ParseDate(*s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrCorruptSubmission, err)
	}
	return t, nil
}

// decodeBase64 accepts the standard alphabet as produced by export, plus the
// damage share links commonly take in transit: '+' turned into a space, the
// URL-safe alphabet and stripped padding.
func decodeBase64(s string) ([]byte, error) {
	s = strings.ReplaceAll(strings.Trim(s, "\r\n\t"), " ", "+")

	var firstErr error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		b, err := enc.DecodeString(s)
		if err == nil {
			return b, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, fmt.Errorf("decoding base64: %w", firstErr)
}

func gunzip(b []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("opening gzip stream: %w", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(io.LimitReader(zr, maxSubmissionBytes+1))
	if err != nil {
		return nil, fmt.Errorf("decompressing: %w", err)
	}
	if len(out) > maxSubmissionBytes {
		return nil, fmt.Errorf("decompressed payload exceeds %d bytes", maxSubmissionBytes)
	}
	return out, nil
}
