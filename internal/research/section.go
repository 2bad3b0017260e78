package research

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/blueprint-cli/internal/jsonx"
	"github.com/sells-group/blueprint-cli/internal/model"
)

// Upstream is the read-only view of previously completed sections that later
// prompts fold in as context.
type Upstream struct {
	Market     *model.MarketOverview
	ICP        *model.ICPValidation
	Offer      *model.OfferViability
	Competitor *model.CompetitorAnalysis
}

// runSection is the shared researcher skeleton: bounded research call,
// JSON extraction, validation, provenance packing. Validators are total, so
// validate only errors on schema-breaking input (required top-level keys
// entirely absent).
func runSection[T any](
	ctx context.Context,
	caller ModelCaller,
	key model.SectionKey,
	req Request,
	timeout time.Duration,
	validate func(map[string]any) (T, error),
) (*model.Section[T], error) {
	sectionCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		sectionCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := caller.Research(sectionCtx, req)
	if err != nil {
		return nil, eris.Wrapf(err, "research: %s call", key)
	}

	obj, err := jsonx.ExtractMap(resp.Text)
	if err != nil {
		return nil, eris.Wrapf(err, "research: no JSON object in %s response", key)
	}

	data, err := validate(obj)
	if err != nil {
		return nil, eris.Wrapf(err, "research: validate %s", key)
	}

	zap.L().Info("section researched",
		zap.String("section", string(key)),
		zap.String("model", resp.Model),
		zap.Int("citations", len(resp.Citations)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &model.Section[T]{
		Data:      data,
		Citations: resp.Citations,
		Model:     resp.Model,
		Cost:      resp.Cost,
	}, nil
}
