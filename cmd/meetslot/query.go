package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"meetslot/internal/api"
	"meetslot/internal/availability"
)

func queryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "Resolve meeting slots for events and a request read from a JSON file.",
		ArgsUsage: " ",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Value: "-", Usage: "JSON input file, - for stdin"},
			&cli.BoolFlag{Name: "json", Usage: "Print the result as JSON instead of a table"},
		},
		Action: func(c *cli.Context) error {
			in := io.Reader(os.Stdin)
			if path := c.String("input"); path != "-" {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return runQuery(in, c.App.Writer, c.Bool("json"))
		},
	}
}

// runQuery decodes an api.QueryRequest from in, resolves it and writes the
// result to out.
func runQuery(in io.Reader, out io.Writer, asJSON bool) error {
	var q api.QueryRequest
	if err := json.NewDecoder(in).Decode(&q); err != nil {
		return fmt.Errorf("decode query: %w", err)
	}
	events, req, err := q.Decode(0)
	if err != nil {
		return err
	}

	resp := api.NewQueryResponse(availability.Resolve(events, req))
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"#", "Slot", "Start", "End", "Minutes"})
	for i, s := range resp.Slots {
		table.Append([]string{
			strconv.Itoa(i + 1),
			s.Label,
			strconv.Itoa(s.Start),
			strconv.Itoa(s.End),
			strconv.Itoa(s.Duration),
		})
	}
	table.Render()
	_, err = fmt.Fprintf(out, "tier: %s\n", resp.Tier)
	return err
}
