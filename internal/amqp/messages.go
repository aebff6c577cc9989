package amqp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"spendview/internal/reports"
)

// ReportMessage is the envelope published for every finished report.
// Report holds the report exactly as the HTTP API would serve it.
type ReportMessage struct {
	ID          string          `json:"id"`
	Kind        string          `json:"kind"`
	GeneratedAt time.Time       `json:"generated_at"`
	Report      json.RawMessage `json:"report"`
}

// NewReportMessage encodes report into a new envelope with a random ID.
func NewReportMessage(kind string, report any, now time.Time) (*ReportMessage, error) {
	var buf bytes.Buffer
	if err := reports.Encode(&buf, report); err != nil {
		return nil, err
	}
	return &ReportMessage{
		ID:          uuid.NewString(),
		Kind:        kind,
		GeneratedAt: now.UTC(),
		Report:      json.RawMessage(bytes.TrimSpace(buf.Bytes())),
	}, nil
}

// ToJSON converts the message to JSON bytes
func (m *ReportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportMessageFromJSON decodes a published envelope.
func ReportMessageFromJSON(data []byte) (*ReportMessage, error) {
	var msg ReportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" || msg.Kind == "" {
		return nil, fmt.Errorf("report message: missing id or kind")
	}
	return &msg, nil
}
