package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/rohmanhakim/beu-result-proxy/internal/extractor"
)

// flexString accepts a JSON string or number and keeps its text form.
// Registration numbers arrive both ways from clients. null reads as "".
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = flexString(str)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*s = flexString(num.String())
	return nil
}

type resultRequest struct {
	RegNo flexString `json:"reg_no"`
	Link  string     `json:"link"`
}

type pdfRequest struct {
	RegNo     flexString            `json:"reg_no"`
	ExamTitle string                `json:"exam_title"`
	Result    []extractor.ResultRow `json:"result"`
}
