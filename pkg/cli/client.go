package cli

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a thin HTTP client for the docflow API. The identity it sends is
// whatever the operator claims; the server's gateway configuration decides
// whether to trust the headers.
type Client struct {
	BaseURL string
	Email   string
	Roles   string
	Admin   bool

	http *http.Client
}

// NewClient builds a client for the given server.
func NewClient(baseURL, email, roles string, admin bool) *Client {
	return &Client{
		BaseURL: baseURL,
		Email:   email,
		Roles:   roles,
		Admin:   admin,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// do performs one API call, decoding a JSON success body into out when out is
// non-nil. Error bodies are surfaced as plain errors with the server's kind.
func (c *Client) do(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Email", c.Email)
	if c.Roles != "" {
		req.Header.Set("X-User-Roles", c.Roles)
	}
	if c.Admin {
		req.Header.Set("X-User-Admin", "true")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
			Kind  string `json:"kind"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			if apiErr.Kind != "" {
				return fmt.Errorf("%s: %s", apiErr.Kind, apiErr.Error)
			}
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// addClientFlags registers the connection flags every command shares.
func addClientFlags(fs *flag.FlagSet) {
	fs.String("server", "http://localhost:8080", "docflow server URL")
	fs.String("email", "", "Caller email")
	fs.String("roles", "", "Comma-separated global roles")
	fs.Bool("admin", false, "Send the admin hint header")
}

// clientFrom builds a client from the parsed connection flags.
func clientFrom(fs *flag.FlagSet) (*Client, error) {
	email := fs.Lookup("email").Value.String()
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	return NewClient(
		fs.Lookup("server").Value.String(),
		email,
		fs.Lookup("roles").Value.String(),
		fs.Lookup("admin").Value.String() == "true",
	), nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// writeJSONIndent writes v to w as indented JSON.
func writeJSONIndent(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseFields decodes the -data flag payload.
func parseFields(raw string) (map[string]interface{}, error) {
	if raw == "" {
		return nil, fmt.Errorf("data is required")
	}
	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("invalid JSON in -data: %w", err)
	}
	return fields, nil
}
