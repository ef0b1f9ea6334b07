// Copyright (c) 2026 The Governor Authors.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/urfave/cli/v2"
	"golang.org/x/time/rate"

	"github.com/myinvois/governor/common/clock"
	"github.com/myinvois/governor/common/config"
	"github.com/myinvois/governor/common/log/loggerimpl"
	"github.com/myinvois/governor/common/log/tag"
	"github.com/myinvois/governor/governor"
)

func main() {
	if err := buildCLI().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildCLI() *cli.App {
	app := cli.NewApp()
	app.Name = "governor"
	app.Usage = "ops tooling for the e-invoicing request governance layer"
	app.Version = "0.0.1"
	app.Commands = []*cli.Command{
		{
			Name:  "validate-config",
			Usage: "load a governor config file and report problems",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "config",
					Aliases: []string{"c"},
					Value:   "config/development.yaml",
					Usage:   "path to the config file",
				},
			},
			Action: validateConfigHandler,
		},
		{
			Name:  "probe",
			Usage: "push synthetic fetches through the full pipeline against a stub target",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "config",
					Aliases: []string{"c"},
					Value:   "config/development.yaml",
					Usage:   "path to the config file",
				},
				&cli.StringFlag{
					Name:  "operation",
					Value: "getDocument",
					Usage: "operation name whose profile governs the probe",
				},
				&cli.StringFlag{
					Name:  "target",
					Value: "",
					Usage: "URL fetched by each probe; empty probes a no-op payload",
				},
				&cli.IntFlag{
					Name:  "count",
					Value: 10,
					Usage: "number of probe fetches to issue",
				},
				&cli.Float64Flag{
					Name:  "rate",
					Value: 2,
					Usage: "probe issue rate in requests per second",
				},
			},
			Action: probeHandler,
		},
	}
	return app
}

func validateConfigHandler(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("config invalid: %w", err)
	}
	fmt.Printf("config ok: %d profiles, maxConcurrent=%d, cacheTTL=%v, maxRetries=%d\n",
		len(cfg.Profiles), cfg.MaxConcurrent, cfg.CacheTTL, cfg.MaxRetries)
	return nil
}

func probeHandler(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config file: %w", err)
	}

	logger, err := loggerimpl.NewDevelopment()
	if err != nil {
		return err
	}

	gov, err := governor.New(&governor.Params{
		Config: cfg,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize governor: %w", err)
	}
	gov.Start()
	defer gov.Stop()

	operation := c.String("operation")
	target := c.String("target")
	count := c.Int("count")

	// pace probe issuance independently of the governor's own admission,
	// so the probe exercises queueing rather than arriving pre-spaced
	pacer := clock.NewRatelimiter(rate.Limit(c.Float64("rate")), 1)

	ctx := context.Background()
	for i := 0; i < count; i++ {
		if err := pacer.Wait(ctx); err != nil {
			return err
		}
		key := fmt.Sprintf("probe-%s-%d", operation, i)
		result, err := gov.Fetch(ctx, governor.Request{
			Operation: operation,
			Key:       key,
			Priority:  0,
			Fetch:     probeFetch(target),
		})
		status := gov.QueueStatus()
		opStatus := gov.OperationStatus(operation)
		if err != nil {
			logger.Error("probe fetch failed",
				tag.OperationName(operation),
				tag.ResourceKey(key),
				tag.Error(err))
			continue
		}
		logger.Info("probe fetch completed",
			tag.OperationName(operation),
			tag.ResourceKey(key),
			tag.DataSource(string(result.Source)),
			tag.Stale(result.Stale),
			tag.RunningCount(status.Running),
			tag.QueueDepth(status.Queued),
			tag.RemainingInWindow(opStatus.RemainingInWindow),
			tag.Delay(opStatus.NextAvailable))
	}
	return nil
}

func probeFetch(target string) governor.FetchFunc {
	if target == "" {
		return func(ctx context.Context) ([]byte, error) {
			return []byte(`{"probe":true}`), nil
		}
	}
	client := &http.Client{}
	return func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if err := governor.ClassifyResponse(resp.StatusCode, resp.Header.Get("Retry-After")); err != nil {
			return nil, err
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, &governor.TransientError{Cause: err}
		}
		return body, nil
	}
}
