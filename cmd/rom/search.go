package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	omclient "github.com/berickus/redis-om-spring/client"
	"github.com/berickus/redis-om-spring/export"
	"github.com/berickus/redis-om-spring/searchquery"
)

var (
	limitFlag = &cli.IntFlag{
		Name:    "limit",
		Aliases: []string{"l"},
		Usage:   "Maximum number of results",
	}
	offsetFlag = &cli.IntFlag{
		Name:  "offset",
		Usage: "Result offset",
	}
	sortByFlag = &cli.StringFlag{
		Name:  "sortby",
		Usage: "Field to sort by",
	}
	descFlag = &cli.BoolFlag{
		Name:  "desc",
		Usage: "Sort in descending order",
	}
	returnFlag = &cli.StringSliceFlag{
		Name:    "return",
		Aliases: []string{"r"},
		Usage:   "Fields to return (repeatable)",
	}
	languageFlag = &cli.StringFlag{
		Name:  "language",
		Usage: "Stemmer language hint",
	}
)

func newSearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Run a search query",
		ArgsUsage: "<query>",
		Flags:     []cli.Flag{limitFlag, offsetFlag, sortByFlag, descFlag, returnFlag, languageFlag},
		Action:    searchAction,
	}
}

func searchAction(ctx context.Context, cmd *cli.Command) error {
	res, err := runSearch(ctx, cmd)
	if err != nil {
		return err
	}
	return printDocuments(res)
}

func newExportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Run a search query and export the results as NDJSON",
		ArgsUsage: "<query> <dest>",
		Flags:     []cli.Flag{limitFlag, offsetFlag, sortByFlag, descFlag, returnFlag},
		Action:    exportAction,
	}
}

func exportAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 2 {
		return fmt.Errorf("expected 2 arguments: query and destination (file path or s3://bucket/key)")
	}
	res, err := runSearch(ctx, cmd)
	if err != nil {
		return err
	}
	return export.Documents(ctx, res.Docs, cmd.Args().Get(1))
}

func runSearch(ctx context.Context, cmd *cli.Command) (*omclient.SearchResult, error) {
	if cmd.Args().Len() < 1 {
		return nil, fmt.Errorf("expected a query argument")
	}

	opts := []searchquery.TemplateOption{searchquery.UseDialect(dialect(cmd))}
	if fields := cmd.StringSlice(returnFlag.Name); len(fields) > 0 {
		opts = append(opts, searchquery.ReturnFields(fields...))
	}
	if cmd.IsSet(limitFlag.Name) || cmd.IsSet(offsetFlag.Name) {
		limit := int(cmd.Int(limitFlag.Name))
		if limit <= 0 {
			limit = omclient.DefaultLimit
		}
		opts = append(opts, searchquery.StaticPaging(int(cmd.Int(offsetFlag.Name)), limit))
	}
	if field := cmd.String(sortByFlag.Name); field != "" {
		opts = append(opts, searchquery.StaticSort(field, !cmd.Bool(descFlag.Name)))
	}
	plan := searchquery.PlanFromTemplate(cmd.Args().First(), opts...)

	c, q, err := queryContext(cmd, plan)
	if err != nil {
		return nil, err
	}

	var execOpts []omclient.ExecOption
	if lang := cmd.String(languageFlag.Name); lang != "" {
		execOpts = append(execOpts, omclient.WithLanguage(lang))
	}
	return omclient.RawSearch(ctx, c, q, nil, execOpts...)
}
