package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/HimashaHerath/webextract"
	"github.com/HimashaHerath/webextract/confidence"
	"github.com/HimashaHerath/webextract/extract"
	"gopkg.in/yaml.v3"
)

// Run executes the extract command.
func (c *ExtractCmd) Run(deps *Dependencies) error {
	opts, err := options(c.Schema, c.Prompt)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", webextract.ErrorMessage(err))
		return err
	}
	opts.ForceRefresh = c.Force

	var rec *webextract.ExtractionRecord
	if c.Summary > 0 {
		rec, err = deps.Extractor.ExtractWithSummary(deps.Ctx, c.URL, c.Summary, opts)
	} else {
		rec, err = deps.Extractor.Extract(deps.Ctx, c.URL, opts)
	}
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", webextract.ErrorMessage(err))
		if webextract.ErrorCode(err) == webextract.EINVALID {
			fmt.Fprintln(deps.Stderr, "Hint: URLs must start with http:// or https://")
		}
		return err
	}

	if c.Output == "" {
		if err := writeRecord(deps.Stdout, rec, c.Format); err != nil {
			return err
		}
	} else {
		var buf bytes.Buffer
		if err := writeRecord(&buf, rec, c.Format); err != nil {
			return err
		}
		if err := os.WriteFile(c.Output, buf.Bytes(), 0o644); err != nil {
			fmt.Fprintf(deps.Stderr, "error: writing %s: %v\n", c.Output, err)
			return err
		}
		fmt.Fprintf(deps.Stderr, "Saved to %s (confidence %.2f)\n", c.Output, rec.Confidence)
	}

	if rec.Failed() {
		msg := rec.StructuredInfo.ErrorMessage()
		fmt.Fprintf(deps.Stderr, "error: %s\n", msg)
		return webextract.Errorf(rec.Content.Metadata["error_code"], "extraction failed: %s", msg)
	}
	return nil
}

// Run executes the batch command.
func (c *BatchCmd) Run(deps *Dependencies) error {
	opts, err := options(c.Schema, c.Prompt)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", webextract.ErrorMessage(err))
		return err
	}

	var ratings map[string]float64
	if c.Feedback != "" {
		if ratings, err = readFeedback(c.Feedback); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", webextract.ErrorMessage(err))
			return err
		}
	}

	concurrency := c.Concurrency
	if concurrency <= 0 {
		concurrency = deps.Config.BatchConcurrency
	}

	records := deps.Extractor.ExtractBatch(deps.Ctx, c.URLs, opts, concurrency)

	enc := json.NewEncoder(deps.Stdout)
	var failed int
	for _, rec := range records {
		if rec == nil {
			failed++
		}
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	if failed > 0 {
		fmt.Fprintf(deps.Stderr, "%d of %d URLs failed\n", failed, len(records))
	}

	if ratings != nil {
		for i, rec := range records {
			if q, ok := ratings[c.URLs[i]]; ok && rec != nil {
				deps.Scorer.RecordFeedback(rec.Confidence, q)
			}
		}
		out, err := yaml.Marshal(map[string]confidence.Stats{"calibration": deps.Scorer.Stats()})
		if err != nil {
			return err
		}
		_, _ = deps.Stderr.Write(out)
	}
	return nil
}

// readFeedback reads a YAML map of URL to observed quality in [0, 1].
func readFeedback(path string) (map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, webextract.Wrap(webextract.EINVALID, err, "reading feedback %s: %v", path, err)
	}
	var ratings map[string]float64
	if err := yaml.Unmarshal(data, &ratings); err != nil {
		return nil, webextract.Wrap(webextract.EINVALID, err, "parsing feedback %s: %v", path, err)
	}
	for u, q := range ratings {
		if q < 0 || q > 1 {
			return nil, webextract.Errorf(webextract.EINVALID, "feedback for %s must be between 0 and 1, got %g", u, q)
		}
	}
	if ratings == nil {
		ratings = map[string]float64{}
	}
	return ratings, nil
}

// options reads the schema file, if any, into extraction options.
func options(schemaPath, customPrompt string) (extract.Options, error) {
	opts := extract.Options{CustomPrompt: customPrompt}
	if schemaPath == "" {
		return opts, nil
	}
	data, err := os.ReadFile(schemaPath)
	if err != nil {
		return opts, webextract.Wrap(webextract.EINVALID, err, "reading schema %s: %v", schemaPath, err)
	}
	schema, err := webextract.ParseSchema(data)
	if err != nil {
		return opts, err
	}
	opts.Schema = schema
	return opts, nil
}
