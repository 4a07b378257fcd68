package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/tackle-hunger/charity-cli/internal/classify"
	"github.com/tackle-hunger/charity-cli/internal/model"
	"github.com/tackle-hunger/charity-cli/internal/store"
	"github.com/tackle-hunger/charity-cli/pkg/charityapi"
)

// initStore opens the audit-run store per config.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	return st, nil
}

// initAPI builds the directory API client from config.
func initAPI() charityapi.Client {
	endpoint := cfg.API.Endpoint
	if endpoint == "" {
		endpoint = charityapi.EndpointFor(cfg.API.Environment)
	}
	return charityapi.NewClient(cfg.API.Token,
		charityapi.WithBaseURL(endpoint),
		charityapi.WithRateLimit(float64(cfg.API.RateRPS)),
	)
}

// persistRun saves a finished run. A run interrupted by SIGINT still has
// partial outcomes an operator may need to reconcile, so the save is
// detached from the signal context and bounded on its own.
func persistRun(ctx context.Context, st store.Store, run *model.Run) error {
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	return st.SaveRun(saveCtx, run)
}

// initClassifier builds the classifier, with rule overrides from a YAML
// file when one is configured or passed on the command line.
func initClassifier(rulesPath string) (*classify.Classifier, error) {
	if rulesPath == "" {
		rulesPath = cfg.Remediate.RulesPath
	}
	if rulesPath == "" {
		return classify.Default(), nil
	}
	rules, err := classify.LoadRules(rulesPath)
	if err != nil {
		return nil, eris.Wrapf(err, "load rules %s", rulesPath)
	}
	return classify.New(rules), nil
}
