package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/itchyny/gojq"
	"github.com/urfave/cli/v2"
)

// outputFlags are shared by every command that prints a result.
func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "json",
			Aliases: []string{"j"},
			Usage:   "Output as JSON",
		},
		&cli.StringFlag{
			Name:  "jq",
			Usage: "jq filter applied to the JSON output (implies --json)",
		},
	}
}

// jsonMode reports whether output should be JSON and compiles any --jq filter.
func jsonMode(c *cli.Context) (bool, *gojq.Code, error) {
	filter := c.String("jq")
	if filter == "" {
		return c.Bool("json"), nil, nil
	}
	code, err := compileJQ(filter)
	if err != nil {
		return false, nil, err
	}
	return true, code, nil
}

func compileJQ(filter string) (*gojq.Code, error) {
	query, err := gojq.Parse(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to parse jq filter %q: %w", filter, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq filter %q: %w", filter, err)
	}
	return code, nil
}

// printJSON writes v as JSON, or each result of code applied to v.
func printJSON(w io.Writer, v any, code *gojq.Code) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	if code == nil {
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	// gojq only understands plain JSON values
	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return fmt.Errorf("failed to prepare jq input: %w", err)
	}

	iter := code.Run(input)
	for {
		result, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, isErr := result.(error); isErr {
			return fmt.Errorf("jq filter failed: %w", err)
		}
		if s, isString := result.(string); isString {
			fmt.Fprintln(w, s)
			continue
		}
		out, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to encode jq result: %w", err)
		}
		fmt.Fprintln(w, string(out))
	}
}
