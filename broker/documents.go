package broker

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"rhfetch/internal"
	"rhfetch/utils"
)

// throttlePattern matches the server's advertised cooldown, e.g.
// "This document is available in 12 seconds."
var throttlePattern = regexp.MustCompile(`available in (\d+) seconds`)

// ParseThrottleDelay extracts the advertised wait in seconds from a
// throttling response body. ok is false when the body carries no cooldown.
func ParseThrottleDelay(body string) (int, bool) {
	match := throttlePattern.FindStringSubmatch(body)
	if match == nil {
		return 0, false
	}
	seconds, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return seconds, true
}

// Retriever downloads account documents one at a time, honoring the
// server's throttling signals. The loop over a batch is strictly
// sequential: the rate limit is shared server-side, and parallel requests
// only amplify the throttling condition.
type Retriever struct {
	config  *internal.Config
	http    *utils.HTTPClient
	fileOps *utils.FileOperations

	// sleep is a test seam for the throttle cooldown wait
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetriever creates a document retriever over the given transport
func NewRetriever(config *internal.Config, httpClient *utils.HTTPClient) *Retriever {
	return &Retriever{
		config:  config,
		http:    httpClient,
		fileOps: utils.NewFileOperations(),
		sleep:   sleepContext,
	}
}

// sleepContext waits for d or until the context is canceled
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// documentsResponse is the documents listing page
type documentsResponse struct {
	Results []internal.DocumentDescriptor `json:"results"`
}

// ListDocuments fetches the descriptors of all account documents
func (r *Retriever) ListDocuments(ctx context.Context, session *internal.Session) ([]internal.DocumentDescriptor, error) {
	if !session.IsValid() {
		return nil, internal.NewPreconditionError("listing documents requires an authenticated session")
	}

	resp, err := r.http.Get(ctx, r.config.BaseURL+"/documents/", utils.BearerHeaders(session.Token))
	if err != nil {
		return nil, err
	}

	var page documentsResponse
	if err := utils.DecodeJSON(resp, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// DownloadAll downloads every descriptor into
// <TargetFolder>/<type>/<id>.pdf, strictly in input order. A throttled
// document is retried in place after the advertised cooldown; any other
// failure aborts the batch, leaving already-written files as-is.
func (r *Retriever) DownloadAll(ctx context.Context, session *internal.Session, docs []internal.DocumentDescriptor, config *internal.DownloadConfig) error {
	if !session.IsValid() {
		return internal.NewPreconditionError("downloading documents requires an authenticated session")
	}
	if config == nil || config.TargetFolder == "" {
		return internal.NewPreconditionError("a target folder is required")
	}

	if err := r.fileOps.EnsureDir(config.TargetFolder); err != nil {
		return internal.NewFileSystemError("mkdir", config.TargetFolder, err)
	}

	var limiter internal.RateLimiter
	if config.RateLimit > 0 {
		limiter = utils.NewTokenBucketLimiter(config.RateLimit)
	}

	for i, doc := range docs {
		internal.LogInfo("downloading document %d/%d: %s/%s", i+1, len(docs), doc.Type, doc.ID)
		if err := r.downloadOne(ctx, session, doc, config, limiter); err != nil {
			return err
		}
	}
	return nil
}

// downloadOne streams a single document to disk, retrying in place while
// the server advertises a cooldown
func (r *Retriever) downloadOne(ctx context.Context, session *internal.Session, doc internal.DocumentDescriptor, config *internal.DownloadConfig, limiter internal.RateLimiter) error {
	typeDir := filepath.Join(config.TargetFolder, doc.Type)
	if err := r.fileOps.EnsureDir(typeDir); err != nil {
		return internal.NewFileSystemError("mkdir", typeDir, err)
	}
	target := filepath.Join(typeDir, doc.ID+".pdf")

	for attempt := 1; ; attempt++ {
		resp, err := r.http.Get(ctx, doc.DownloadURL, utils.BearerHeaders(session.Token))
		if err != nil {
			return err
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return r.streamToFile(ctx, resp.Body, resp.ContentLength, doc, target, config, limiter)
		}

		status, body, err := utils.ReadResponse(resp)
		if err != nil {
			return err
		}

		delay, throttled := ParseThrottleDelay(string(body))
		if !throttled {
			return internal.NewInvalidResponseError(status, utils.ServerMessage(body))
		}

		throttleErr := internal.NewThrottledError(status, delay)
		if config.MaxAttempts > 0 && attempt >= config.MaxAttempts {
			return throttleErr
		}

		// The server's advertised wait plus a second of slack
		wait := time.Duration(delay+1) * time.Second
		internal.LogWarn("document %s throttled (attempt %d), waiting %s", doc.ID, attempt, wait)
		if err := r.sleep(ctx, wait); err != nil {
			throttleErr.Cause = err
			return throttleErr
		}
	}
}

// streamToFile copies the response body to target through the progress bar
// and the optional bandwidth limiter
func (r *Retriever) streamToFile(ctx context.Context, body io.ReadCloser, contentLength int64, doc internal.DocumentDescriptor, target string, config *internal.DownloadConfig, limiter internal.RateLimiter) error {
	defer body.Close()

	tracker := utils.NewProgressTracker(fmt.Sprintf("%s/%s.pdf", doc.Type, doc.ID), contentLength, config.Quiet)
	defer tracker.Finish()

	reader := tracker.Reader(body)
	if limiter != nil {
		reader = utils.NewRateLimitedReader(ctx, reader, limiter)
	}

	written, err := r.fileOps.WriteStream(target, reader)
	if err != nil {
		return internal.NewFileSystemError("writing", target, err)
	}
	internal.LogDebug("wrote %d bytes to %s", written, target)
	return nil
}
