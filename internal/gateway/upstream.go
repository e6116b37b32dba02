package gateway

import (
	"context"

	"github.com/rpay/antigravity-gateway/internal/accountpool"
	"github.com/rpay/antigravity-gateway/internal/routing"
	"github.com/rpay/antigravity-gateway/internal/transform"
)

// pipelineUpstream adapts a transform.Pipeline into routing.Upstream: it
// resolves the selected account's access token, calls the pipeline, and
// captures the last successful response body so the handler can write it
// once Resolve returns (§4.6).
type pipelineUpstream struct {
	pool     *accountpool.Pool
	pipeline transform.Pipeline
	fields   transform.AnthropicRequestFields
	thinking bool

	lastBody []byte
}

func (u *pipelineUpstream) Attempt(ctx context.Context, account *accountpool.Account, model string) error {
	token, err := u.pool.AccessToken(ctx, account)
	if err != nil {
		return upstreamFailure(err)
	}
	body, err := u.pipeline.Generate(ctx, token, model, u.fields, u.thinking)
	if err != nil {
		return upstreamFailure(err)
	}
	u.lastBody = body
	return nil
}

var _ routing.Upstream = (*pipelineUpstream)(nil)
