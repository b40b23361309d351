// Package nus implements a client for the title distribution service
// (§6): fetching metadata, tickets, and content blobs over HTTP and
// reconstructing a certificate chain from the pieces it returns.
package nus

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ninjacheetah/gowiipkg/werr"
)

// Base URLs for the two known distribution endpoints.
const (
	BaseWii  = "http://nus.cdn.shop.wii.com/ccs/download/"
	BaseWiiU = "http://ccs.cdn.wup.shop.nintendo.net/ccs/download/"
)

// Progress is invoked once per content id, after that content's body has
// been read in full (fetched and total are then both its length); no
// calls are made while a body is still being received. It must be safe
// to call from multiple goroutines, since DownloadContents calls it
// concurrently across content ids.
type Progress func(contentID uint32, fetched, total int64)

// Client fetches title data from a distribution service.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     zerolog.Logger
	// MaxConcurrency bounds how many content fetches DownloadContents runs
	// at once. Zero selects a small default.
	MaxConcurrency int
}

// NewClient returns a Client pointed at the standard console endpoint.
func NewClient() *Client {
	return &Client{
		BaseURL:    BaseWii,
		HTTPClient: http.DefaultClient,
		Logger:     zerolog.Nop(),
	}
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request for %s: %v", werr.ErrIO, path, err)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %s: %v", werr.ErrIO, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned status %d", werr.ErrIO, path, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body of %s: %v", werr.ErrIO, path, err)
	}
	return data, nil
}

// FetchMetadata downloads the latest metadata for a title, or a specific
// version when version is non-negative.
func (c *Client) FetchMetadata(ctx context.Context, titleID string, version int) ([]byte, error) {
	path := titleID + "/tmd"
	if version >= 0 {
		path += "." + strconv.Itoa(version)
	}
	c.Logger.Debug().Str("title_id", titleID).Int("version", version).Msg("fetching metadata")
	return c.get(ctx, path)
}

// FetchTicket downloads a title's ticket. Only present for titles
// distributed for free; a 404 surfaces as werr.ErrIO.
func (c *Client) FetchTicket(ctx context.Context, titleID string) ([]byte, error) {
	c.Logger.Debug().Str("title_id", titleID).Msg("fetching ticket")
	return c.get(ctx, titleID+"/cetk")
}

// FetchContent downloads one content blob by its 8-hex-digit content id.
func (c *Client) FetchContent(ctx context.Context, titleID string, contentID uint32) ([]byte, error) {
	path := fmt.Sprintf("%s/%08x", titleID, contentID)
	c.Logger.Debug().Str("title_id", titleID).Uint32("content_id", contentID).Msg("fetching content")
	return c.get(ctx, path)
}

// DownloadContents fetches every content id in contentIDs concurrently,
// bounded by MaxConcurrency, reporting progress through onProgress if
// non-nil. The returned slice is in the same order as contentIDs.
func (c *Client) DownloadContents(ctx context.Context, titleID string, contentIDs []uint32, onProgress Progress) ([][]byte, error) {
	results := make([][]byte, len(contentIDs))
	g, ctx := errgroup.WithContext(ctx)
	limit := c.MaxConcurrency
	if limit <= 0 {
		limit = 4
	}
	g.SetLimit(limit)
	for i, cid := range contentIDs {
		i, cid := i, cid
		g.Go(func() error {
			data, err := c.FetchContent(ctx, titleID, cid)
			if err != nil {
				return err
			}
			if onProgress != nil {
				onProgress(cid, int64(len(data)), int64(len(data)))
			}
			results[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// certSegmentSize is the length of one raw certificate segment packed
// into a fetched ticket or metadata blob.
const certSegmentSize = 768

// ReconstructCertChain builds a raw certificate chain from a fetched
// ticket (cetk) and metadata (tmd) blob: the CA certificate trails the
// ticket, the signer certificate is embedded in the metadata at offset
// 0x328, and the ticket-signer certificate precedes the CA segment
// in the ticket.
func ReconstructCertChain(cetk, tmd []byte) ([]byte, error) {
	const tikSize = 0x2A4
	const tmdCertOffset = 0x328
	if len(cetk) < tikSize+certSegmentSize {
		return nil, fmt.Errorf("%w: ticket blob too short to contain a trailing certificate", werr.ErrMalformedStructure)
	}
	if len(tmd) < tmdCertOffset+certSegmentSize {
		return nil, fmt.Errorf("%w: metadata blob too short to contain its embedded certificate", werr.ErrMalformedStructure)
	}
	out := make([]byte, 0, certSegmentSize*3)
	out = append(out, cetk[tikSize+certSegmentSize:tikSize+certSegmentSize*2]...)
	out = append(out, tmd[tmdCertOffset:tmdCertOffset+certSegmentSize]...)
	out = append(out, cetk[tikSize:tikSize+certSegmentSize]...)
	return out, nil
}
