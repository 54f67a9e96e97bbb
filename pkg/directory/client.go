package directory

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// NodeDetails is what the public map knows about a node. A nil entry means
// the node is not listed.
type NodeDetails struct {
	ID        int64  `json:"id"`
	ShortName string `json:"shortName"`
	Name      string `json:"name"`
	LongName  string `json:"longName"`
	Desc      string `json:"description"`
}

// Short returns the best short label the directory offers.
func (d *NodeDetails) Short() string {
	if d.ShortName != "" {
		return d.ShortName
	}
	return d.Name
}

// Long returns the best long label the directory offers.
func (d *NodeDetails) Long() string {
	if d.LongName != "" {
		return d.LongName
	}
	return d.Desc
}

// Client looks nodes up on the LoraItalia public map, caching results so a
// chatty node does not turn into a flood of directory calls.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *ttlcache.Cache[string, *NodeDetails]
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	cache := ttlcache.New[string, *NodeDetails](
		ttlcache.WithTTL[string, *NodeDetails](15*time.Minute),
		ttlcache.WithCapacity[string, *NodeDetails](1024),
	)
	return NewClientWithCache(baseURL, timeout, cache)
}

// NewClientWithCache builds a client around a caller-provided cache, so the
// capacity and TTL can be sized per deployment. The client takes ownership
// of the cache and starts its expiration loop.
func NewClientWithCache(baseURL string, timeout time.Duration, cache *ttlcache.Cache[string, *NodeDetails]) *Client {
	go cache.Start()
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		cache:   cache,
	}
}

// Lookup fetches the directory entry for a hex node ID. Misses and
// malformed responses resolve to nil and are cached like hits; transport
// errors are returned and not cached.
func (c *Client) Lookup(nodeNum string) (*NodeDetails, error) {
	if item := c.cache.Get(nodeNum); item != nil {
		return item.Value(), nil
	}

	url := fmt.Sprintf("%s/public/map/get/node/%s", c.baseURL, nodeNum)
	resp, err := c.http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("directory lookup for %s: %w", nodeNum, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Debug("node not listed on public map", "node_id", nodeNum, "status", resp.StatusCode)
		c.cache.Set(nodeNum, nil, ttlcache.DefaultTTL)
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("directory lookup for %s: %w", nodeNum, err)
	}

	var details NodeDetails
	if err := json.Unmarshal(body, &details); err != nil {
		slog.Warn("malformed public map response", "node_id", nodeNum, "error", err)
		c.cache.Set(nodeNum, nil, ttlcache.DefaultTTL)
		return nil, nil
	}

	c.cache.Set(nodeNum, &details, ttlcache.DefaultTTL)
	return &details, nil
}

func (c *Client) Stop() {
	c.cache.Stop()
}
