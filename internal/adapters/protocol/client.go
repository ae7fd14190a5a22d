// Package protocol implements ports.ProfileStore against the profile
// backend's JSON HTTP API.
package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hearthlabs/hearth/pkg/ports"
)

// Client is an HTTP ProfileStore.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a client for the backend at baseURL. apiKey may be empty
// for unauthenticated deployments.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type userPayload struct {
	ID          string `json:"id"`
	DiscordID   string `json:"discord_id"`
	GuildID     string `json:"guild_id"`
	DisplayName string `json:"display_name"`
	Handle      string `json:"handle"`
	Wallet      string `json:"wallet"`
	Forum       string `json:"forum"`
}

type guildPayload struct {
	ID         string `json:"id"`
	GuildID    string `json:"guild_id"`
	Name       string `json:"name"`
	ReportLink string `json:"report_link"`
}

type contributionPayload struct {
	Contributor string    `json:"contributor"`
	Activity    string    `json:"activity"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
	EngagedAt   time.Time `json:"engaged_at"`
	Points      int       `json:"points"`
}

type taskPayload struct {
	Order        int    `json:"order"`
	Instructions string `json:"instructions"`
}

// FindUser resolves a user's profile within a guild, or nil when absent.
func (c *Client) FindUser(ctx context.Context, discordID, guildID string) (*ports.UserProfile, error) {
	q := url.Values{"discord_id": {discordID}, "guild_id": {guildID}}
	var payload userPayload
	found, err := c.get(ctx, "/users?"+q.Encode(), &payload)
	if err != nil || !found {
		return nil, err
	}
	return userFromPayload(payload), nil
}

// CreateUser creates a profile for a user within a guild.
func (c *Client) CreateUser(ctx context.Context, discordID, guildID string) (*ports.UserProfile, error) {
	var payload userPayload
	err := c.post(ctx, "/users", userPayload{DiscordID: discordID, GuildID: guildID}, &payload)
	if err != nil {
		return nil, err
	}
	return userFromPayload(payload), nil
}

// UpdateUserField sets one profile field.
func (c *Client) UpdateUserField(ctx context.Context, profileID, field, value string) error {
	return c.patch(ctx, "/users/"+url.PathEscape(profileID), map[string]string{field: value})
}

// ListUserGuilds returns the guilds the user holds a profile in.
func (c *Client) ListUserGuilds(ctx context.Context, discordID string) ([]ports.GuildProfile, error) {
	q := url.Values{"discord_id": {discordID}}
	var payloads []guildPayload
	if _, err := c.get(ctx, "/guilds?"+q.Encode(), &payloads); err != nil {
		return nil, err
	}
	guilds := make([]ports.GuildProfile, 0, len(payloads))
	for _, p := range payloads {
		guilds = append(guilds, *guildFromPayload(p))
	}
	return guilds, nil
}

// FindGuild resolves a guild profile, or nil when absent.
func (c *Client) FindGuild(ctx context.Context, guildID string) (*ports.GuildProfile, error) {
	var payload guildPayload
	found, err := c.get(ctx, "/guilds/"+url.PathEscape(guildID), &payload)
	if err != nil || !found {
		return nil, err
	}
	return guildFromPayload(payload), nil
}

// CreateGuild registers a community.
func (c *Client) CreateGuild(ctx context.Context, guildID string) (*ports.GuildProfile, error) {
	var payload guildPayload
	err := c.post(ctx, "/guilds", guildPayload{GuildID: guildID}, &payload)
	if err != nil {
		return nil, err
	}
	return guildFromPayload(payload), nil
}

// UpdateGuildField sets one guild field.
func (c *Client) UpdateGuildField(ctx context.Context, guildID, field, value string) error {
	return c.patch(ctx, "/guilds/"+url.PathEscape(guildID), map[string]string{field: value})
}

// ListContributions returns a user's contributions, optionally bounded.
func (c *Client) ListContributions(ctx context.Context, profileID string, since *time.Time) ([]ports.Contribution, error) {
	path := "/users/" + url.PathEscape(profileID) + "/contributions" + sinceQuery(since)
	return c.listContributions(ctx, path)
}

// ListGuildContributions returns every member's contributions within a
// guild, optionally bounded.
func (c *Client) ListGuildContributions(ctx context.Context, guildID string, since *time.Time) ([]ports.Contribution, error) {
	path := "/guilds/" + url.PathEscape(guildID) + "/contributions" + sinceQuery(since)
	return c.listContributions(ctx, path)
}

// ListContributionTasks returns the guild's configured tasks in order.
func (c *Client) ListContributionTasks(ctx context.Context, guildID string) ([]ports.ContributionTask, error) {
	var payloads []taskPayload
	if _, err := c.get(ctx, "/guilds/"+url.PathEscape(guildID)+"/tasks", &payloads); err != nil {
		return nil, err
	}
	tasks := make([]ports.ContributionTask, 0, len(payloads))
	for _, p := range payloads {
		tasks = append(tasks, ports.ContributionTask{Order: p.Order, Instructions: p.Instructions})
	}
	return tasks, nil
}

func (c *Client) listContributions(ctx context.Context, path string) ([]ports.Contribution, error) {
	var payloads []contributionPayload
	if _, err := c.get(ctx, path, &payloads); err != nil {
		return nil, err
	}
	contributions := make([]ports.Contribution, 0, len(payloads))
	for _, p := range payloads {
		contributions = append(contributions, ports.Contribution{
			Contributor: p.Contributor,
			Activity:    p.Activity,
			Status:      p.Status,
			SubmittedAt: p.SubmittedAt,
			EngagedAt:   p.EngagedAt,
			Points:      p.Points,
		})
	}
	return contributions, nil
}

func sinceQuery(since *time.Time) string {
	if since == nil {
		return ""
	}
	return "?since=" + url.QueryEscape(since.Format(time.RFC3339))
}

func userFromPayload(p userPayload) *ports.UserProfile {
	return &ports.UserProfile{
		ID:          p.ID,
		DiscordID:   p.DiscordID,
		GuildID:     p.GuildID,
		DisplayName: p.DisplayName,
		Handle:      p.Handle,
		Wallet:      p.Wallet,
		Forum:       p.Forum,
	}
}

func guildFromPayload(p guildPayload) *ports.GuildProfile {
	return &ports.GuildProfile{
		ID:         p.ID,
		GuildID:    p.GuildID,
		Name:       p.Name,
		ReportLink: p.ReportLink,
	}
}

// get performs a GET; a 404 reports found=false with a nil error, so
// callers can map absence to (nil, nil).
func (c *Client) get(ctx context.Context, path string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, apiError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode %s response: %w", path, err)
	}
	return true, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return apiError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) patch(ctx context.Context, path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return apiError(resp)
	}
	return nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile backend request: %w", err)
	}
	return resp, nil
}

func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("profile backend returned %d: %s", resp.StatusCode, body)
}
