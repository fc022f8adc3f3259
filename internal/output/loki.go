package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"exec-launcher/internal/event"
)

type LokiClient struct {
	endpoint string
	client   *http.Client
}

type lokiPushRequest struct {
	Streams []lokiStream `json:"streams"`
}

type lokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"`
}

func NewLokiClient(endpoint string) *LokiClient {
	return &LokiClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

func (l *LokiClient) Push(ev event.LaunchEvent) error {
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	stream := lokiStream{
		Stream: map[string]string{
			"app":     "exec-launcher",
			"pid":     strconv.Itoa(ev.PID),
			"program": ev.Program,
			"outcome": string(ev.Outcome),
		},
		Values: [][]string{
			{strconv.FormatInt(ts.UnixNano(), 10), ev.String()},
		},
	}

	body, err := json.Marshal(lokiPushRequest{Streams: []lokiStream{stream}})
	if err != nil {
		return err
	}

	resp, err := l.client.Post(l.endpoint, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("loki returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
