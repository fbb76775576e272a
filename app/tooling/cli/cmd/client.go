package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// requestTimeout is generous since a mine request waits for the proof search.
const requestTimeout = 5 * time.Minute

var client = http.Client{
	Timeout: requestTimeout,
}

// call sends a request to the node api and writes the indented response
// document to out.
func call(ctx context.Context, out io.Writer, method string, path string, dataSend any) error {
	var body io.Reader
	if dataSend != nil {
		data, err := json.Marshal(dataSend)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fmt.Sprintf("%s/v1%s", url, path), body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("node responded %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}

	var doc bytes.Buffer
	if err := json.Indent(&doc, data, "", "  "); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	doc.WriteByte('\n')

	_, err = doc.WriteTo(out)
	return err
}
