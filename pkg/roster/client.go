package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const apiVersion = "5.199"

// maxResponseSize bounds a membership API response (10MB).
const maxResponseSize = 10 * 1024 * 1024

// Client talks to the community platform's HTTP API. It implements
// Membership and BatchResolver against the group-members and user-info
// methods.
type Client struct {
	client  *http.Client
	baseURL string
	token   string
	groupID int64
}

// ClientConfig configures the membership API client.
type ClientConfig struct {
	// BaseURL is the API root, e.g. "https://api.vk.com".
	BaseURL string

	// Token is the privileged access token. The managers filter and
	// full member listings require it.
	Token string

	// GroupID is the community whose members count as students.
	GroupID int64

	// Timeout bounds each request (default: 15s).
	Timeout time.Duration
}

// NewClient creates a membership API client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		groupID: cfg.GroupID,
	}
}

type memberItem struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (m memberItem) displayName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

type membersResponse struct {
	Count int          `json:"count"`
	Items []memberItem `json:"items"`
}

// Members implements Membership.Members.
func (c *Client) Members(ctx context.Context, offset, count int) (Page, error) {
	return c.memberPage(ctx, offset, count, "")
}

// Managers implements Membership.Managers.
func (c *Client) Managers(ctx context.Context, offset, count int) (Page, error) {
	return c.memberPage(ctx, offset, count, "managers")
}

func (c *Client) memberPage(ctx context.Context, offset, count int, filter string) (Page, error) {
	params := url.Values{}
	params.Set("group_id", strconv.FormatInt(c.groupID, 10))
	params.Set("offset", strconv.Itoa(offset))
	params.Set("count", strconv.Itoa(count))
	params.Set("fields", "first_name,last_name")
	if filter != "" {
		params.Set("filter", filter)
	}

	var body membersResponse
	if err := c.call(ctx, "groups.getMembers", params, &body); err != nil {
		return Page{}, err
	}

	page := Page{Total: body.Count, Items: make([]Member, 0, len(body.Items))}
	for _, it := range body.Items {
		page.Items = append(page.Items, Member{ID: it.ID, Name: it.displayName()})
	}
	return page, nil
}

// ResolveNames implements BatchResolver.ResolveNames. The caller is
// expected to chunk ids to the platform's ceiling; see ResolveNames in
// this package.
func (c *Client) ResolveNames(ctx context.Context, ids []int64) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = strconv.FormatInt(id, 10)
	}
	params := url.Values{}
	params.Set("user_ids", strings.Join(strs, ","))
	params.Set("fields", "first_name,last_name")

	var body []memberItem
	if err := c.call(ctx, "users.get", params, &body); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(body))
	for _, it := range body {
		names = append(names, it.displayName())
	}
	return names, nil
}

// DisplayName resolves a single user id to their display name.
func (c *Client) DisplayName(ctx context.Context, id int64) (string, error) {
	names, err := c.ResolveNames(ctx, []int64{id})
	if err != nil {
		return "", err
	}
	if len(names) == 0 || names[0] == "" {
		return "", fmt.Errorf("%w: user %d not found", ErrUnavailable, id)
	}
	return names[0], nil
}

// apiEnvelope is the platform's wire shape: a response payload or an
// error object, never both.
type apiEnvelope struct {
	Response json.RawMessage `json:"response"`
	Error    *struct {
		Code    int    `json:"error_code"`
		Message string `json:"error_msg"`
	} `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params url.Values, out any) error {
	params.Set("access_token", c.token)
	params.Set("v", apiVersion)

	endpoint := c.baseURL + "/method/" + method + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned status %d", ErrUnavailable, method, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("%w: undecodable %s response: %v", ErrUnavailable, method, err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("%w: %s failed: %s (code %d)",
			ErrUnavailable, method, envelope.Error.Message, envelope.Error.Code)
	}

	if err := json.Unmarshal(envelope.Response, out); err != nil {
		return fmt.Errorf("%w: unexpected %s payload: %v", ErrUnavailable, method, err)
	}
	return nil
}
